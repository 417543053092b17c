package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innerflame/internal/domain"
	"innerflame/internal/domain/models"
	"innerflame/internal/domain/services"
)

type aiEditFixture struct {
	*versionFixture
	svc services.AIEditService
}

func newAIEditFixture(t *testing.T) *aiEditFixture {
	t.Helper()
	vf := newVersionFixture(t)
	return &aiEditFixture{
		versionFixture: vf,
		svc:            NewAIEditService(vf.docRepo, vf.svc, slog.Default()),
	}
}

func TestApplyResponseIgnoresPlainProse(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	f.seedDocument(t, "user-1", `{"title":"My Canvas","Problem":"Focus"}`)

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: "doc-1",
		UserID:     "user-1",
		Response:   "Here is some advice about your canvas. You could use replace_in_file to change it.",
	})
	require.NoError(t, err)

	assert.False(t, result.Processed)
	assert.False(t, result.DocumentUpdated)
}

func TestApplyResponseTargetedEdit(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"My Canvas","Problem":"Founders lose focus","Solution":"A guided editor"}`)

	response := "I'll sharpen the problem statement.\n" +
		"<replace_in_file>\n<diff>\n" +
		"<<<<<<< SEARCH\n" +
		"Founders lose focus\n" +
		"=======\n" +
		"Early-stage founders lose focus without structure\n" +
		">>>>>>> REPLACE\n" +
		"</diff>\n</replace_in_file>\n"

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Response:   response,
	})
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.True(t, result.DocumentUpdated)
	require.NotEmpty(t, result.VersionID)
	assert.Empty(t, result.Error)

	version, err := f.versionRepo.GetByID(ctx, result.VersionID)
	require.NoError(t, err)
	assert.Equal(t, models.VersionTypeAIEdit, version.VersionType)
	assert.Equal(t, 2, version.VersionNumber)

	vc := models.ParseVersionContent(version.Content)
	require.True(t, vc.IsStructured())
	problem, _ := vc.Fields.Get("Problem")
	assert.Equal(t, "Early-stage founders lose focus without structure", problem)
	solution, _ := vc.Fields.Get("Solution")
	assert.Equal(t, "A guided editor", solution, "untouched fields must survive")
}

func TestApplyResponseMultipleBlocksPartialMatch(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"My Canvas","Problem":"Focus","Revenue Streams":"$1,000/month subscriptions"}`)

	response := "<replace_in_file>\n<diff>\n" +
		"<<<<<<< SEARCH\n$1000/month\n=======\n$2,000/month\n>>>>>>> REPLACE\n" +
		"<<<<<<< SEARCH\nthis text exists nowhere\n=======\nreplacement\n>>>>>>> REPLACE\n" +
		"</diff>\n</replace_in_file>"

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Response:   response,
	})
	require.NoError(t, err)

	assert.True(t, result.DocumentUpdated, "one applied block is enough to commit")
	require.NotEmpty(t, result.Warnings, "the unmatched block must be reported")

	version, err := f.versionRepo.GetByID(ctx, result.VersionID)
	require.NoError(t, err)
	vc := models.ParseVersionContent(version.Content)
	require.True(t, vc.IsStructured())
	// The digit-comma strategy normalizes the replacement the same way
	// as the search text, so the separator comma is stripped.
	revenue, _ := vc.Fields.Get("Revenue Streams")
	assert.Equal(t, "$2000/month subscriptions", revenue)
}

func TestApplyResponseNoBlocksMatch(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"My Canvas","Problem":"Focus"}`)

	response := "<replace_in_file>\n<diff>\n" +
		"<<<<<<< SEARCH\ncompletely unrelated text\n=======\nnew text\n>>>>>>> REPLACE\n" +
		"</diff>\n</replace_in_file>"

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Response:   response,
	})
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.False(t, result.DocumentUpdated)
	assert.NotEmpty(t, result.Error)

	// No version was committed.
	current, err := f.versionFixture.svc.GetCurrentVersion(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.VersionNumber)
}

func TestApplyResponseMalformedDiff(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"My Canvas","Problem":"Focus"}`)

	response := "<replace_in_file>\n<diff>\n" +
		"<<<<<<< SEARCH\nFocus\nno divider or closing marker here\n" +
		"</diff>\n</replace_in_file>"

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Response:   response,
	})
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.False(t, result.DocumentUpdated)
	assert.NotEmpty(t, result.Error)
	assert.NotEmpty(t, result.Warnings)
}

func TestApplyResponseFullRewrite(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"My Canvas","Problem":"Focus"}`)

	response := "<write_to_file>\n<content>\n" +
		`{"title":"My Canvas","Problem":"Refined problem","Solution":"New solution"}` +
		"\n</content>\n</write_to_file>"

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Response:   response,
	})
	require.NoError(t, err)

	assert.True(t, result.DocumentUpdated)

	version, err := f.versionRepo.GetByID(ctx, result.VersionID)
	require.NoError(t, err)
	vc := models.ParseVersionContent(version.Content)
	require.True(t, vc.IsStructured())
	solution, _ := vc.Fields.Get("Solution")
	assert.Equal(t, "New solution", solution)
}

func TestApplyResponseFullRewriteRepairsJSON(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"My Canvas","Problem":"Focus"}`)

	// Trailing comma, the most common generation defect.
	response := "<document_edit>\n<content>\n" +
		`{"title":"My Canvas","Problem":"Repaired problem",}` +
		"\n</content>\n</document_edit>"

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Response:   response,
	})
	require.NoError(t, err)

	assert.True(t, result.DocumentUpdated)

	version, err := f.versionRepo.GetByID(ctx, result.VersionID)
	require.NoError(t, err)
	vc := models.ParseVersionContent(version.Content)
	require.True(t, vc.IsStructured(), "repaired content must parse as fields")
	problem, _ := vc.Fields.Get("Problem")
	assert.Equal(t, "Repaired problem", problem)
}

func TestApplyResponseRewriteWithoutTitleInheritsIt(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"Sticky Title","Problem":"Focus"}`)

	response := "<write_to_file>\n<content>\n" +
		`{"Problem":"Rewritten without a title"}` +
		"\n</content>\n</write_to_file>"

	result, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Response:   response,
	})
	require.NoError(t, err)
	require.True(t, result.DocumentUpdated)

	version, err := f.versionRepo.GetByID(ctx, result.VersionID)
	require.NoError(t, err)
	vc := models.ParseVersionContent(version.Content)
	require.True(t, vc.IsStructured())
	assert.Equal(t, "Sticky Title", vc.Fields.Title())
}

func TestApplyResponseChecksOwnership(t *testing.T) {
	f := newAIEditFixture(t)
	ctx := context.Background()

	doc, _ := f.seedDocument(t, "user-1", `{"title":"A"}`)

	_, err := f.svc.ApplyResponse(ctx, &services.ApplyResponseRequest{
		DocumentID: doc.ID,
		UserID:     "somebody-else",
		Response:   "<write_to_file><content>{}</content></write_to_file>",
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}
