package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/bazaar/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDocumentStore_PutAndPresign(t *testing.T) {
	store := storage.NewInMemoryDocumentStore()
	ctx := context.Background()

	ref, err := store.Put(ctx, "vendors/abc/kyc.pdf", "application/pdf", strings.NewReader("document body"))
	require.NoError(t, err)
	assert.Equal(t, "vendors/abc/kyc.pdf", ref)

	data, ok := store.Get("vendors/abc/kyc.pdf")
	require.True(t, ok)
	assert.Equal(t, "document body", string(data))

	url, err := store.PresignGet(ctx, "vendors/abc/kyc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "memory://vendors/abc/kyc.pdf", url)
}

func TestInMemoryDocumentStore_MissingDocument(t *testing.T) {
	store := storage.NewInMemoryDocumentStore()
	ctx := context.Background()

	_, err := store.Put(ctx, "", "application/pdf", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = store.PresignGet(ctx, "vendors/missing/kyc.pdf")
	assert.Error(t, err)
}
