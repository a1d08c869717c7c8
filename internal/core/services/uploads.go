// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
)

// URLSigner issues signed URLs for objects. *cloud.GCSSigner satisfies it.
type URLSigner interface {
	SignedURL(ctx context.Context, bucket string, object string, opts *storage.SignedURLOptions) (string, error)
}

// UploadService hands out V4 signed URLs that let a client PUT a file
// straight into the ingest bucket. The bucket notification then triggers
// the upload analysis workflow.
type UploadService struct {
	Signer URLSigner
	Bucket string
	TTL    time.Duration
}

// CreateUploadURL validates the request and signs a PUT URL bound to the
// declared content type. Only media types the server can recognize are
// accepted.
func (s *UploadService) CreateUploadURL(ctx context.Context, req *model.UploadURLRequest) (*model.UploadURLResponse, error) {
	filename := strings.TrimSpace(req.Filename)
	contentType := strings.TrimSpace(req.ContentType)
	if filename == "" || contentType == "" {
		return nil, model.NewValidationError("", "filename, contentType required")
	}
	if strings.HasPrefix(filename, "/") || strings.Contains(filename, "..") {
		return nil, model.NewValidationError("filename", "must be a relative object name")
	}
	if !filetype.IsMIMESupported(contentType) {
		return nil, model.NewValidationError("contentType", fmt.Sprintf("unsupported media type %q", contentType))
	}

	url, err := s.Signer.SignedURL(ctx, s.Bucket, filename, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(s.TTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload url for gs://%s/%s: %w", s.Bucket, filename, err)
	}
	return &model.UploadURLResponse{
		URL:     url,
		Method:  http.MethodPut,
		Headers: map[string]string{"Content-Type": contentType},
	}, nil
}
