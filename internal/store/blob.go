package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

type (
	// BlobConfig configures the bucket-backed store. URL is any bucket URL
	// gocloud.dev understands, such as s3://, gs://, azblob://, file:// or
	// mem://
	BlobConfig struct {
		URL    string `json:"url"`
		Prefix string `json:"prefix"`
	}

	// BlobStore keeps each workflow as a JSON object in a bucket. Objects
	// are retained until deleted; expiry belongs to the bucket's lifecycle
	// rules
	BlobStore struct {
		bucket *blob.Bucket
		prefix string
	}
)

const (
	blobWorkflowDir = "workflow/"
	blobExt         = ".json"
	blobContentType = "application/json"
)

var _ Store = (*BlobStore)(nil)

// NewBlobStore opens the bucket named by cfg.URL
func NewBlobStore(ctx context.Context, cfg BlobConfig) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return NewBlobStoreWithBucket(bucket, cfg.Prefix), nil
}

// NewBlobStoreWithBucket wraps an already opened bucket
func NewBlobStoreWithBucket(bucket *blob.Bucket, prefix string) *BlobStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BlobStore{
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *BlobStore) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, bool, error) {
	data, err := s.bucket.ReadAll(ctx, s.key(id))
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	wf, err := decodeWorkflow(data)
	if err != nil {
		return nil, false, err
	}
	return wf, true, nil
}

func (s *BlobStore) Set(ctx context.Context, wf *api.Workflow) error {
	if err := checkWorkflow(wf); err != nil {
		return err
	}
	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	err = s.bucket.WriteAll(ctx, s.key(wf.ID), data, &blob.WriterOptions{
		ContentType: blobContentType,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return nil
}

func (s *BlobStore) Delete(ctx context.Context, id api.WorkflowID) (bool, error) {
	err := s.bucket.Delete(ctx, s.key(id))
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return true, nil
}

func (s *BlobStore) Exists(ctx context.Context, id api.WorkflowID) (bool, error) {
	ok, err := s.bucket.Exists(ctx, s.key(id))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return ok, nil
}

func (s *BlobStore) List(ctx context.Context) ([]*api.Workflow, error) {
	res := []*api.Workflow{}
	iter := s.bucket.List(&blob.ListOptions{
		Prefix: s.prefix + blobWorkflowDir,
	})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackend, err)
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, blobExt) {
			continue
		}

		data, err := s.bucket.ReadAll(ctx, obj.Key)
		// objects may be deleted between listing and reading
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackend, err)
		}
		wf, err := decodeWorkflow(data)
		if err != nil {
			return nil, err
		}
		res = append(res, wf)
	}
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) key(id api.WorkflowID) string {
	return s.prefix + blobWorkflowDir + string(id) + blobExt
}

func isNotFound(err error) bool {
	return err != nil && gcerrors.Code(err) == gcerrors.NotFound
}
