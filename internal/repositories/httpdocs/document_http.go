// Package httpdocs fetches exam documents from the static document host the
// exam front end reads from.
package httpdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/repositories"
)

type documentRepository struct {
	baseURL string
	client  *http.Client
}

// New creates an ExamDocumentRepository reading from
// {baseURL}/exams/{id}/questions.json and {baseURL}/exams/{id}/answers.json.
func New(baseURL string) repositories.ExamDocumentRepository {
	return &documentRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewWithClient allows injecting the HTTP client, used by tests.
func NewWithClient(baseURL string, client *http.Client) repositories.ExamDocumentRepository {
	return &documentRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (r *documentRepository) GetQuestions(ctx context.Context, examID string) (*models.QuestionDocument, error) {
	var doc models.QuestionDocument
	if err := r.fetch(ctx, examID, "questions.json", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) GetAnswerKey(ctx context.Context, examID string) (*models.AnswerKeyDocument, error) {
	var doc models.AnswerKeyDocument
	if err := r.fetch(ctx, examID, "answers.json", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) fetch(ctx context.Context, examID, name string, dest interface{}) error {
	url := fmt.Sprintf("%s/exams/%s/%s", r.baseURL, examID, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return repositories.NotFound(examID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("document source returned %d for %s", resp.StatusCode, name)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("malformed %s: %w", name, err)
	}
	return nil
}
