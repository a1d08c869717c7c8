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

package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/services"
	"github.com/zeebo/assert"
	"google.golang.org/api/option"
)

type recordingSigner struct {
	bucket string
	object string
	opts   *storage.SignedURLOptions
	err    error
}

func (r *recordingSigner) SignedURL(_ context.Context, bucket string, object string, opts *storage.SignedURLOptions) (string, error) {
	r.bucket, r.object, r.opts = bucket, object, opts
	if r.err != nil {
		return "", r.err
	}
	return "https://storage.googleapis.com/" + bucket + "/" + object + "?X-Goog-Signature=abc", nil
}

func TestCreateUploadURL(t *testing.T) {
	signer := &recordingSigner{}
	svc := &services.UploadService{Signer: signer, Bucket: "mychannel-ingest", TTL: 15 * time.Minute}

	out, err := svc.CreateUploadURL(context.Background(), &model.UploadURLRequest{Filename: "clips/a.mp4", ContentType: "video/mp4"})
	assert.NoError(t, err)
	assert.Equal(t, "PUT", out.Method)
	assert.Equal(t, "video/mp4", out.Headers["Content-Type"])
	assert.That(t, strings.HasPrefix(out.URL, "https://storage.googleapis.com/mychannel-ingest/clips/a.mp4"))

	assert.Equal(t, "mychannel-ingest", signer.bucket)
	assert.Equal(t, "clips/a.mp4", signer.object)
	assert.Equal(t, "PUT", signer.opts.Method)
	assert.Equal(t, "video/mp4", signer.opts.ContentType)
	assert.Equal(t, storage.SigningSchemeV4, signer.opts.Scheme)
	assert.That(t, time.Until(signer.opts.Expires) > 14*time.Minute)
	assert.That(t, time.Until(signer.opts.Expires) <= 15*time.Minute)
}

func TestCreateUploadURLValidation(t *testing.T) {
	svc := &services.UploadService{Signer: &recordingSigner{}, Bucket: "b", TTL: time.Minute}
	cases := []*model.UploadURLRequest{
		{Filename: "", ContentType: "video/mp4"},
		{Filename: "a.mp4", ContentType: ""},
		{Filename: "../a.mp4", ContentType: "video/mp4"},
		{Filename: "a.exe", ContentType: "application/x-unknown-thing"},
	}
	for _, req := range cases {
		_, err := svc.CreateUploadURL(context.Background(), req)
		var validation *model.ValidationError
		assert.That(t, errors.As(err, &validation))
	}
}

func TestCreateUploadURLSignerFailure(t *testing.T) {
	svc := &services.UploadService{Signer: &recordingSigner{err: errors.New("denied")}, Bucket: "b", TTL: time.Minute}
	_, err := svc.CreateUploadURL(context.Background(), &model.UploadURLRequest{Filename: "a.mp4", ContentType: "video/mp4"})
	assert.Error(t, err)
	var validation *model.ValidationError
	assert.That(t, !errors.As(err, &validation))
}

func paths(updates []firestore.Update) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.Path)
	}
	return out
}

func TestUserDocumentUpdatesOnCreate(t *testing.T) {
	updates := services.UserDocumentUpdates(&model.UserDocumentEvent{
		Kind:   model.UserDocumentCreated,
		UserID: "u1",
		After:  &model.UserDocument{Email: "a@example.com"},
	})
	assert.DeepEqual(t, []string{"welcome_email_sent", "welcome_email_sent_at", "email_language"}, paths(updates))
	assert.Equal(t, "en", updates[2].Value)

	assert.Nil(t, services.UserDocumentUpdates(&model.UserDocumentEvent{Kind: model.UserDocumentCreated, After: &model.UserDocument{}}))
}

func TestUserDocumentUpdatesOnVerification(t *testing.T) {
	verified := &model.UserDocument{Email: "a@example.com", EmailVerified: true}
	unverified := &model.UserDocument{Email: "a@example.com"}

	updates := services.UserDocumentUpdates(&model.UserDocumentEvent{Kind: model.UserDocumentUpdated, Before: unverified, After: verified})
	assert.DeepEqual(t, []string{"thank_you_email_sent", "thank_you_email_sent_at"}, paths(updates))

	assert.Nil(t, services.UserDocumentUpdates(&model.UserDocumentEvent{Kind: model.UserDocumentUpdated, Before: verified, After: verified}))
	assert.Nil(t, services.UserDocumentUpdates(&model.UserDocumentEvent{Kind: model.UserDocumentUpdated, Before: unverified, After: unverified}))
	assert.Nil(t, services.UserDocumentUpdates(nil))
}

func TestFeatureTableNames(t *testing.T) {
	client, err := bigquery.NewClient(context.Background(), "mychannel-test", option.WithoutAuthentication())
	assert.NoError(t, err)
	defer client.Close()

	svc := &services.FeatureService{BigqueryClient: client, DatasetName: "media_gateway", FeatureTable: "video_features"}
	assert.Equal(t, "mychannel-test.media_gateway.video_features", svc.GetFQN())
	assert.NotNil(t, svc.Inserter())
}

func TestFeatureSchema(t *testing.T) {
	schema, err := services.FeatureSchema()
	assert.NoError(t, err)

	fields := map[string]*bigquery.FieldSchema{}
	for _, f := range schema {
		fields[f.Name] = f
	}
	assert.Equal(t, bigquery.StringFieldType, fields["video_id"].Type)
	assert.That(t, fields["labels"].Repeated)
	assert.Equal(t, bigquery.BooleanFieldType, fields["explicit_content"].Type)
	assert.Equal(t, bigquery.FloatFieldType, fields["duration_seconds"].Type)
	assert.Equal(t, bigquery.TimestampFieldType, fields["create_date"].Type)
}
