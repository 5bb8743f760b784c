package mlflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-training-step/internal/core/domain"
)

func TestArtifactStore_UploadAndList(t *testing.T) {
	fake, srv := newFakeMLflow(t)
	client := NewClient(srv.URL, time.Second)
	runs := NewRunRepository(client)
	store := NewArtifactStore(client)

	run := domain.NewRun("Default")
	require.NoError(t, runs.Create(context.Background(), run))

	require.NoError(t, store.Upload(context.Background(), run.ID, "samle.pkl", strings.NewReader("{}")))
	require.NoError(t, store.Upload(context.Background(), run.ID, "outputs/notes.txt", strings.NewReader("n")))

	assert.Equal(t, []byte("{}"), fake.file(run.ID, "samle.pkl"))

	names, err := store.List(context.Background(), run.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"samle.pkl", "outputs/notes.txt"}, names)
}

func TestArtifactStore_List_Empty(t *testing.T) {
	_, srv := newFakeMLflow(t)
	client := NewClient(srv.URL, time.Second)
	run := domain.NewRun("Default")
	require.NoError(t, NewRunRepository(client).Create(context.Background(), run))

	names, err := NewArtifactStore(client).List(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestArtifactStore_Upload_UnknownRun(t *testing.T) {
	_, srv := newFakeMLflow(t)
	store := NewArtifactStore(NewClient(srv.URL, time.Second))

	err := store.Upload(context.Background(), "nope", "samle.pkl", strings.NewReader("{}"))
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestArtifactStore_Upload_UnproxiedArtifactRoot(t *testing.T) {
	fake, srv := newFakeMLflow(t)
	fake.setArtifactScheme("s3://bucket")
	client := NewClient(srv.URL, time.Second)

	run := domain.NewRun("Default")
	require.NoError(t, NewRunRepository(client).Create(context.Background(), run))

	err := NewArtifactStore(client).Upload(context.Background(), run.ID, "samle.pkl", strings.NewReader("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not served by the tracking server")
}

func TestArtifactStore_URI(t *testing.T) {
	store := NewArtifactStore(NewClient("http://localhost:5000", time.Second))
	assert.Equal(t, "runs:/abc/samle.pkl", store.URI("abc", "samle.pkl"))
}
