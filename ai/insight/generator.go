// Package insight generates proactive insights and tracks their surfaced/dismissed lifecycle.
package insight

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hrygo/echomind/store"
)

// Generator computes candidate insights for a user.
type Generator interface {
	Generate(ctx context.Context, userID int32) ([]*store.ProactiveInsight, error)
}

// insightNamespace scopes derived insight ids.
var insightNamespace = uuid.MustParse("6f1c1f9e-3d7a-4c55-9a8e-5b0b2f0d8a11")

// DeriveID returns a stable id for an insight, so regenerating the same
// insight maps to the same row instead of a duplicate.
func DeriveID(userID int32, parts ...string) string {
	key := fmt.Sprint(userID)
	for _, p := range parts {
		key += "\x00" + p
	}
	return uuid.NewSHA1(insightNamespace, []byte(key)).String()
}
