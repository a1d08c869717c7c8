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
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// FeatureService reads and maintains the video features table that the
// feature sink workflow writes to.
type FeatureService struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	FeatureTable   string
}

func (s *FeatureService) table() *bigquery.Table {
	return s.BigqueryClient.Dataset(s.DatasetName).Table(s.FeatureTable)
}

// GetFQN returns the table name in the project.dataset.table form standard
// SQL expects.
func (s *FeatureService) GetFQN() string {
	return strings.Replace(s.table().FullyQualifiedName(), ":", ".", 1)
}

// Inserter returns a streaming inserter for feature rows.
func (s *FeatureService) Inserter() *bigquery.Inserter {
	return s.table().Inserter()
}

// FeatureSchema is the table schema inferred from model.FeatureRecord.
func FeatureSchema() (bigquery.Schema, error) {
	return bigquery.InferSchema(model.FeatureRecord{})
}

// EnsureTable creates the features table when it does not exist yet.
func (s *FeatureService) EnsureTable(ctx context.Context) error {
	_, err := s.table().Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("failed to read table metadata for %s: %w", s.GetFQN(), err)
	}

	schema, err := FeatureSchema()
	if err != nil {
		return err
	}
	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "create_date",
		},
	}
	if err := s.table().Create(ctx, meta); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.GetFQN(), err)
	}
	return nil
}

// Latest returns the most recently persisted feature row of a video, or
// ErrNotFound.
func (s *FeatureService) Latest(ctx context.Context, videoID string) (*model.FeatureRecord, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryLatestFeatures, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "video_id", Value: videoID}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	record := &model.FeatureRecord{}
	err = itr.Next(record)
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("features for video %s: %w", videoID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}
