package engine

import (
	"context"
	"time"

	"github.com/LucasPickering/slumber/builder"
	"github.com/LucasPickering/slumber/collection"
	"github.com/LucasPickering/slumber/dispatch"
	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/template"
)

// responseSource implements template.ResponseSource: it applies the
// trigger/chain policy (C10) for a `response`/`response_header` call made
// during a render.
type responseSource struct {
	engine    *Engine
	profileID *exchange.ProfileID
	dryRun    bool
}

// LatestResponse resolves the latest exchange for recipeID under the
// render's selected profile, per the table in §4.10:
//
//	Never      -> stored exchange only; ResponseMissing if none.
//	NoHistory  -> stored exchange if any; else dispatch fresh.
//	Expire(d)  -> stored exchange if end_time+d >= now; else dispatch fresh.
//	Always     -> always dispatch fresh, ignoring history.
func (rs *responseSource) LatestResponse(ctx context.Context, recipeID exchange.RecipeID, trigger exchange.RequestTrigger) (*exchange.Exchange, error) {
	filter := rs.profileFilter()

	switch trigger.Kind {
	case exchange.TriggerNever:
		ex, err := rs.engine.History.GetLatestRequest(ctx, filter, recipeID)
		if err != nil {
			return nil, template.WrapError(template.KindErrDatabase, err, "reading history for recipe %q", recipeID)
		}
		if ex == nil {
			return nil, template.NewError(template.KindErrResponseMissing, "no stored response for recipe %q", recipeID)
		}
		return ex, nil

	case exchange.TriggerNoHistory:
		ex, err := rs.engine.History.GetLatestRequest(ctx, filter, recipeID)
		if err != nil {
			return nil, template.WrapError(template.KindErrDatabase, err, "reading history for recipe %q", recipeID)
		}
		if ex != nil {
			return ex, nil
		}
		return rs.dispatchFresh(ctx, recipeID)

	case exchange.TriggerExpire:
		ex, err := rs.engine.History.GetLatestRequest(ctx, filter, recipeID)
		if err != nil {
			return nil, template.WrapError(template.KindErrDatabase, err, "reading history for recipe %q", recipeID)
		}
		if ex != nil && !ex.EndTime.Add(trigger.Expire).Before(time.Now()) {
			return ex, nil
		}
		return rs.dispatchFresh(ctx, recipeID)

	case exchange.TriggerAlways:
		return rs.dispatchFresh(ctx, recipeID)

	default:
		return nil, template.NewError(template.KindErrTrigger, "unknown trigger kind for recipe %q", recipeID)
	}
}

// dispatchFresh builds and sends a sub-request for recipeID under the
// same profile, with default options (no overrides, no disables), and
// persists the result exactly as a primary request would. It requires
// triggering to be enabled for the current render; dry-run renders fail
// with TriggerDisabled on any path that actually needs a fresh dispatch.
func (rs *responseSource) dispatchFresh(ctx context.Context, recipeID exchange.RecipeID) (*exchange.Exchange, error) {
	if rs.dryRun {
		return nil, template.NewError(template.KindErrTriggerDisabled, "triggering is disabled (dry-run); recipe %q requires a fresh request", recipeID)
	}

	recipe, err := rs.engine.Collection.Tree.GetRecipe(collection.RecipeID(recipeID))
	if err != nil {
		return nil, template.WrapError(template.KindErrTrigger, err, "resolving triggered recipe %q", recipeID)
	}

	var profile *collection.Profile
	if rs.profileID != nil {
		p, ok := rs.engine.Collection.Profile(collection.ProfileID(*rs.profileID))
		if !ok {
			return nil, template.NewError(template.KindErrTrigger, "profile %q not found for triggered recipe %q", *rs.profileID, recipeID)
		}
		profile = p
	}

	subRC := rs.engine.newRenderContext(profile, rs.profileID, nil, false, rs.dryRun)

	ticket, err := builder.Build(ctx, subRC, recipe, rs.profileID, builder.NewOptions())
	if err != nil {
		return nil, template.WrapError(template.KindErrTrigger, err, "building triggered request for recipe %q", recipeID)
	}

	result, err := dispatch.Send(ctx, rs.engine.Client, ticket, rs.engine.History, nil)
	if err != nil {
		return nil, template.WrapError(template.KindErrSend, err, "dispatching triggered request for recipe %q", recipeID)
	}
	return result.Exchange, nil
}

func (rs *responseSource) profileFilter() exchange.ProfileFilter {
	if rs.profileID == nil {
		return exchange.FilterNone()
	}
	return exchange.FilterProfile(*rs.profileID)
}
