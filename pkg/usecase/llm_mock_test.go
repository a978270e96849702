package usecase_test

import (
	"context"

	"github.com/m-mizutani/gollem"
)

// countingLLM is a mock gollem LLMClient that records session creation
type countingLLM struct {
	sessions int
	response string
}

func (c *countingLLM) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	c.sessions++
	return &fixedSession{response: c.response}, nil
}

func (c *countingLLM) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

// fixedSession is a mock gollem Session returning one canned text
type fixedSession struct {
	response string
}

func (s *fixedSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return &gollem.Response{Texts: []string{s.response}}, nil
}

func (s *fixedSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *fixedSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *fixedSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *fixedSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}
