package builder

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/LucasPickering/slumber/collection"
	"github.com/LucasPickering/slumber/template"
)

// authRenderResult carries the fully-formed Authorization header value to
// append (never replace, per §4.7 step 4: a recipe's own explicit
// Authorization header and an Auth scheme both send, as duplicates).
type authRenderResult struct {
	header string
	err    error
}

func renderAuth(ctx context.Context, rc template.Context, auth *collection.Auth) *authRenderResult {
	if auth == nil || auth.Kind == collection.AuthNone {
		return nil
	}

	switch auth.Kind {
	case collection.AuthBasic:
		var username, password string
		var usernameErr, passwordErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			b, err := template.RenderBytes(ctx, rc, auth.Username)
			username, usernameErr = string(b), err
		}()
		go func() {
			defer wg.Done()
			b, err := template.RenderBytes(ctx, rc, auth.Password)
			password, passwordErr = string(b), err
		}()
		wg.Wait()
		if usernameErr != nil {
			return &authRenderResult{err: usernameErr}
		}
		if passwordErr != nil {
			return &authRenderResult{err: passwordErr}
		}
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		return &authRenderResult{header: "Basic " + token}
	case collection.AuthBearer:
		b, err := template.RenderBytes(ctx, rc, auth.Token)
		if err != nil {
			return &authRenderResult{err: err}
		}
		return &authRenderResult{header: "Bearer " + string(b)}
	default:
		return &authRenderResult{err: template.NewError(template.KindErrBuild, "unknown auth kind")}
	}
}
