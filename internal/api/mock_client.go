package api

import (
	"context"
	"sync"

	"github.com/diogo/eerieecho/internal/models"
)

// MockGeminiClient is a mock implementation of GeminiClientInterface for testing
type MockGeminiClient struct {
	// Mock return values
	Reply       string
	Err         error
	Model       models.Model
	IsClosedVal bool

	// Block, when non-nil, is waited on before Generate returns
	Block chan struct{}

	// Call counters/recorders
	mu             sync.Mutex
	Calls          int
	CloseCalled    bool
	LastKey        string
	LastTranscript []models.TranscriptEntry
}

// Ensure MockGeminiClient implements GeminiClientInterface
var _ GeminiClientInterface = (*MockGeminiClient)(nil)

func (m *MockGeminiClient) Generate(ctx context.Context, transcript []models.TranscriptEntry, apiKey string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.LastKey = apiKey
	m.LastTranscript = append([]models.TranscriptEntry(nil), transcript...)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.Reply, m.Err
}

// CallCount returns how many times Generate was invoked
func (m *MockGeminiClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// Transcript returns the transcript of the last Generate call
func (m *MockGeminiClient) Transcript() []models.TranscriptEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TranscriptEntry(nil), m.LastTranscript...)
}

func (m *MockGeminiClient) GetModel() models.Model {
	return m.Model
}

func (m *MockGeminiClient) SetModel(model models.Model) {
	m.Model = model
}

func (m *MockGeminiClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	m.IsClosedVal = true
}
