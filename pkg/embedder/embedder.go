// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package embedder declares the embedding capability injected into the
// retrieval pipeline. Model loading and hosting live entirely outside this
// package; implementations wrap whatever hosts the actual model.
package embedder

import "context"

// Model produces vector embeddings from text. The pipeline calls it only
// when it needs to embed a query directly; the rerank path never calls it,
// since cross-encoders score (query, passage) pairs jointly.
type Model interface {
	// Encode embeds a batch of texts, returning one vector per input in order.
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the embedding vector width.
	Dimension() int

	// Name reports the underlying model identifier, for logging and metrics.
	Name() string

	// Close releases resources held by the model.
	Close() error
}

// ApplyAsymPrefix prepends an asymmetric-query prefix to a query string
// before embedding. Asymmetric embedding models score queries and documents
// differently; a prefix such as "query: " tells the model which role the
// text plays.
func ApplyAsymPrefix(query, prefix string) string {
	if prefix == "" {
		return query
	}
	return prefix + query
}
