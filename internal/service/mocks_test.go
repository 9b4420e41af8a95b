package service

import (
	"io"
	"strings"

	"github.com/stretchr/testify/mock"
	"github.com/templui/sheetlens/internal/model"
)

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Create(a *model.Analysis) error {
	return m.Called(a).Error(0)
}

func (m *MockAnalysisRepository) Latest(userID, fileID string, t model.AnalysisType) (*model.Analysis, error) {
	args := m.Called(userID, fileID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

func (m *MockAnalysisRepository) List(userID string, t model.AnalysisType, limit, offset int) ([]*model.AnalysisSummary, error) {
	args := m.Called(userID, t, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AnalysisSummary), args.Error(1)
}

func (m *MockAnalysisRepository) Count(userID string, t model.AnalysisType) (int, error) {
	args := m.Called(userID, t)
	return args.Int(0), args.Error(1)
}

// MockFileSource serves one in-memory file per id.
type MockFileSource struct {
	mock.Mock
	contents map[string]string
}

func (m *MockFileSource) ByIDForUser(userID, fileID string) (*model.File, error) {
	args := m.Called(userID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileSource) Open(file *model.File) (io.ReadCloser, error) {
	m.Called(file.ID)
	return io.NopCloser(strings.NewReader(m.contents[file.ID])), nil
}
