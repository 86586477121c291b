// Copyright 2025 Costwatch Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectionReadiness(t *testing.T) {
	c := NewCollectionReadiness()
	assert.Equal(t, "budget-sync-collection", c.Name())

	assert.ErrorIs(t, c.Check(nil), ErrNotCollected, "unready before the first pass")

	c.MarkPass(nil)
	assert.NoError(t, c.Check(nil))

	queryErr := errors.New("quota exceeded")
	c.MarkPass(queryErr)
	err := c.Check(nil)
	assert.ErrorIs(t, err, queryErr)
	assert.Contains(t, err.Error(), "last collection pass at")

	c.MarkPass(nil)
	assert.NoError(t, c.Check(nil), "recovers after a successful pass")
}
