package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetex-tech/exam-service/internal/archive"
	"github.com/tetex-tech/exam-service/internal/events"
	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/utils"
)

func newViewerFixture(docs *stubDocumentRepository) (ViewerService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(slog.Default())
	svc := NewViewerService(docs, publisher, utils.NewDevelopmentLogger(), 5*time.Second)
	return svc, publisher
}

// packageFixtureArchive runs the real finish pipeline so viewer tests decode
// genuine archives, not hand-built ones.
func packageFixtureArchive(t *testing.T) []byte {
	t.Helper()
	svc, _ := newPackagingFixture(fixtureDocs())
	result, err := svc.FinishExam(context.Background(), finishRequest())
	require.NoError(t, err)
	return result.Content
}

func TestDecodeRoundTrip(t *testing.T) {
	archiveBytes := packageFixtureArchive(t)
	svc, publisher := newViewerFixture(fixtureDocs())

	decoded, err := svc.Decode(context.Background(), archiveBytes)
	require.NoError(t, err)

	assert.Equal(t, "exam-001", decoded.Payload.ExamID)
	assert.Equal(t, "alice", decoded.Payload.Username)
	require.NotNil(t, decoded.Payload.Result)
	assert.Equal(t, 15.0, decoded.Payload.Result.EarnedPoints)

	require.NotNil(t, decoded.TimeLimit)
	assert.Equal(t, 45, *decoded.TimeLimit)

	require.Len(t, decoded.Review, 2)
	first := decoded.Review[0]
	assert.Equal(t, "q1", first.QuestionID)
	assert.Equal(t, "Pick one", first.QuestionText)
	assert.Equal(t, "Beta", first.GivenAnswer) // option id resolved to text
	assert.Equal(t, "Beta", first.CorrectAnswer)
	assert.Equal(t, "correct", first.Status)
	assert.Equal(t, int64(1700000000000), first.AnsweredAt)

	second := decoded.Review[1]
	assert.Equal(t, "paris", second.GivenAnswer)
	assert.Equal(t, "Paris", second.CorrectAnswer)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventArchiveDecoded, published[0].Type)
}

func TestDecodeGarbageInput(t *testing.T) {
	svc, publisher := newViewerFixture(fixtureDocs())

	_, err := svc.Decode(context.Background(), []byte("definitely not a zip"))
	require.ErrorIs(t, err, ErrDecryptionFailed)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventArchiveDecodeFailed, published[0].Type)
}

func TestDecodeTamperedArchiveIsOpaque(t *testing.T) {
	archiveBytes := packageFixtureArchive(t)
	svc, _ := newViewerFixture(fixtureDocs())

	// Flip one ciphertext byte and rebuild the archive; GCM must reject it.
	bundle, err := archive.Open(archiveBytes)
	require.NoError(t, err)
	bundle.Payload.Data[len(bundle.Payload.Data)/2] ^= 0xff
	tampered, err := archive.Assemble(bundle)
	require.NoError(t, err)

	_, err = svc.Decode(context.Background(), tampered)
	require.Error(t, err)
	// Whatever broke, the caller sees the one generic decode error.
	assert.ErrorIs(t, err, ErrDecryptionFailed)
	assert.EqualError(t, err, ErrDecryptionFailed.Error())
}

func TestDecodeSurvivesMissingExamDocuments(t *testing.T) {
	archiveBytes := packageFixtureArchive(t)

	// The documents the archive was graded against are gone now.
	svc, publisher := newViewerFixture(&stubDocumentRepository{})

	decoded, err := svc.Decode(context.Background(), archiveBytes)
	require.NoError(t, err)

	assert.Equal(t, "exam-001", decoded.Payload.ExamID)
	assert.Nil(t, decoded.TimeLimit)
	assert.Empty(t, decoded.Review)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventArchiveDecoded, published[0].Type)
}

func TestDecodeHonorsTimeout(t *testing.T) {
	archiveBytes := packageFixtureArchive(t)

	// The document source hangs until its context is cancelled; only the
	// service-applied deadline can unblock the review resolution.
	svc := NewViewerService(
		&slowDocumentRepository{delay: 30 * time.Second},
		events.NewMockEventPublisher(slog.Default()),
		utils.NewDevelopmentLogger(),
		50*time.Millisecond,
	)

	done := make(chan struct{})
	var decoded *DecodedSubmission
	var err error
	go func() {
		decoded, err = svc.Decode(context.Background(), archiveBytes)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Decode did not return under its configured timeout")
	}

	// The archive itself decrypted fine; only review resolution degraded.
	require.NoError(t, err)
	assert.Equal(t, "exam-001", decoded.Payload.ExamID)
	assert.Empty(t, decoded.Review)
}

var fixtureSortFillDoc = models.QuestionDocument{
	Questions: []models.Question{
		{ID: "s1", Type: models.Sort, Text: "Order the steps", Points: 6, Items: []string{"first", "second", "third"}},
		{ID: "f1", Type: models.FillIn, Text: "Colors", Points: 4, TextWithBlanks: "{1} and {2}"},
	},
}

var fixtureSortFillKey = models.AnswerKeyDocument{
	Answers: map[string]*models.AnswerKey{
		"s1": {CorrectOrder: []string{"1", "0", "2"}},
		"f1": {Answers: map[string]models.BlankKey{
			"1": {Answer: "red"},
			"2": {Answer: "green"},
		}},
	},
}

func sortFillAnswers() models.AnswerMap {
	return models.AnswerMap{
		"s1": json.RawMessage(`{"order":["1","0","2"]}`),
		"f1": json.RawMessage(`{"answers":{"1":"red","2":"blue"}}`),
	}
}

func TestDecodeSortAndFillInResolution(t *testing.T) {
	docs := fixtureDocs()
	docs.questions["exam-002"] = &fixtureSortFillDoc
	docs.keys["exam-002"] = &fixtureSortFillKey

	packSvc, _ := newPackagingFixture(docs)
	req := finishRequest()
	req.ExamID = "exam-002"
	req.Answers = sortFillAnswers()

	result, err := packSvc.FinishExam(context.Background(), req)
	require.NoError(t, err)

	svc, _ := newViewerFixture(docs)
	decoded, err := svc.Decode(context.Background(), result.Content)
	require.NoError(t, err)

	require.Len(t, decoded.Review, 2)
	assert.Equal(t, "second -> first -> third", decoded.Review[0].GivenAnswer)
	assert.Equal(t, "blank 1: red, blank 2: blue", decoded.Review[1].GivenAnswer)
	assert.Equal(t, "blank 1: red, blank 2: green", decoded.Review[1].CorrectAnswer)
	assert.Equal(t, "incorrect", decoded.Review[1].Status)
}
