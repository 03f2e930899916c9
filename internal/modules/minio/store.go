// Package minio provides a MinIO-backed implementation of modules.Store.
// Each module is one JSON document keyed by its ID.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/modules"
)

// Config holds the settings for the MinIO module store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// Bucket holds the module documents. Created on startup if missing.
	Bucket string
}

// Store is a MinIO implementation of modules.Store.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	client *miniogo.Client
	bucket string
}

// New connects to MinIO, ensures the bucket exists, and returns a Store.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, mapError(err, "failed to check module bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, mapError(err, "failed to create module bucket")
		}
	}

	return s, nil
}

// --- modules.Store implementation ---

// Save persists m as a JSON object keyed by its ID.
func (s *Store) Save(ctx context.Context, m *modules.Module) error {
	if m.ID == "" {
		return errs.New(errs.ErrKindInvalidInput, "module ID is required")
	}

	body, err := json.Marshal(m)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to encode module", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectKey(m.ID),
		bytes.NewReader(body), int64(len(body)),
		miniogo.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return mapError(err, "failed to save module")
	}
	return nil
}

// Get loads the module with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*modules.Module, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(id), miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get module")
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, "failed to read module")
	}

	var m modules.Module
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to decode module", err)
	}
	return &m, nil
}

// List returns all saved modules, newest first.
func (s *Store) List(ctx context.Context) ([]*modules.Module, error) {
	var out []*modules.Module

	for obj := range s.client.ListObjects(ctx, s.bucket, miniogo.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, mapError(obj.Err, "failed to list modules")
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}

		m, err := s.Get(ctx, strings.TrimSuffix(obj.Key, ".json"))
		if err != nil {
			// A module that fails to load is skipped, not fatal for the list.
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes the module with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectKey(id), miniogo.RemoveObjectOptions{})
	if err != nil {
		mapped := mapError(err, "failed to delete module")
		if errs.IsNotFound(mapped) {
			return nil
		}
		return mapped
	}
	return nil
}

func objectKey(id string) string {
	return id + ".json"
}

// mapError translates a MinIO SDK error into a *errs.Error. Mirrors the
// mapError pattern in the postgres and mysql store drivers.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var resp miniogo.ErrorResponse
	if errorsAs(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case "RequestTimeout", "SlowDown":
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func errorsAs(err error, target *miniogo.ErrorResponse) bool {
	resp := miniogo.ToErrorResponse(err)
	if resp.Code == "" {
		return false
	}
	*target = resp
	return true
}
