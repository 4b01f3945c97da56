package function

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/template"
)

func TestParseTriggerVariants(t *testing.T) {
	tr, err := parseTrigger("never")
	require.NoError(t, err)
	assert.Equal(t, exchange.TriggerNever, tr.Kind)

	tr, err = parseTrigger("no_history")
	require.NoError(t, err)
	assert.Equal(t, exchange.TriggerNoHistory, tr.Kind)

	tr, err = parseTrigger("always")
	require.NoError(t, err)
	assert.Equal(t, exchange.TriggerAlways, tr.Kind)

	tr, err = parseTrigger("expire:5m")
	require.NoError(t, err)
	assert.Equal(t, exchange.TriggerExpire, tr.Kind)
	assert.Equal(t, 5*time.Minute, tr.Expire)

	_, err = parseTrigger("sideways")
	require.Error(t, err)
}

func TestResponseFnReturnsBody(t *testing.T) {
	rc := newTestContext()
	rc.responses = fakeResponses{
		"login": {
			ID: uuid.New(),
			Response: &exchange.Response{
				StatusCode: 200,
				Headers:    http.Header{"Content-Type": {"application/json"}},
				Body:       []byte(`{"token":"abc"}`),
			},
		},
	}
	lv, err := responseFn(context.Background(), rc, args(template.NewString("login")))
	require.NoError(t, err)
	b, err := lv.ToBytes("")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc"}`, string(b))
}

func TestResponseFnDecodeTextReturnsString(t *testing.T) {
	rc := newTestContext()
	rc.responses = fakeResponses{
		"login": {
			ID: uuid.New(),
			Response: &exchange.Response{
				StatusCode: 200,
				Body:       []byte(`{"token":"abc"}`),
			},
		},
	}
	lv, err := responseFn(context.Background(), rc, kwArgs(
		[]template.Value{template.NewString("login")},
		map[string]template.Value{"decode": template.NewString("text")},
	))
	require.NoError(t, err)
	v, err := lv.ToValue("")
	require.NoError(t, err)
	assert.Equal(t, template.KindString, v.Kind())
}

func TestResponseFnDecodeTextFailsOnInvalidUTF8(t *testing.T) {
	rc := newTestContext()
	rc.responses = fakeResponses{
		"login": {
			ID: uuid.New(),
			Response: &exchange.Response{
				StatusCode: 200,
				Body:       []byte{0xff, 0xfe},
			},
		},
	}
	_, err := responseFn(context.Background(), rc, kwArgs(
		[]template.Value{template.NewString("login")},
		map[string]template.Value{"decode": template.NewString("text")},
	))
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.KindErrInvalidUTF8, tErr.Kind)
}

func TestResponseHeaderFnDecodeBinaryReturnsBytes(t *testing.T) {
	rc := newTestContext()
	rc.responses = fakeResponses{
		"login": {
			ID: uuid.New(),
			Response: &exchange.Response{
				StatusCode: 200,
				Headers:    http.Header{"X-Request-Id": {"req-1"}},
			},
		},
	}
	lv, err := responseHeaderFn(context.Background(), rc, kwArgs(
		[]template.Value{template.NewString("login"), template.NewString("X-Request-Id")},
		map[string]template.Value{"decode": template.NewString("binary")},
	))
	require.NoError(t, err)
	v, err := lv.ToValue("")
	require.NoError(t, err)
	assert.Equal(t, template.KindBytes, v.Kind())
}

func TestResponseFnMissingRecipeIsResponseMissing(t *testing.T) {
	rc := newTestContext()
	rc.responses = fakeResponses{}
	_, err := responseFn(context.Background(), rc, args(template.NewString("login")))
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.KindErrResponseMissing, tErr.Kind)
}

func TestResponseHeaderFnReturnsFirstValue(t *testing.T) {
	rc := newTestContext()
	rc.responses = fakeResponses{
		"login": {
			ID: uuid.New(),
			Response: &exchange.Response{
				StatusCode: 200,
				Headers:    http.Header{"X-Request-Id": {"req-1"}},
			},
		},
	}
	lv, err := responseHeaderFn(context.Background(), rc, args(
		template.NewString("login"), template.NewString("X-Request-Id"),
	))
	require.NoError(t, err)
	v, err := lv.ToValue("")
	require.NoError(t, err)
	assert.Equal(t, "req-1", v.Str())
}

func TestResponseHeaderFnMissingHeaderError(t *testing.T) {
	rc := newTestContext()
	rc.responses = fakeResponses{
		"login": {
			ID:       uuid.New(),
			Response: &exchange.Response{StatusCode: 200, Headers: http.Header{}},
		},
	}
	_, err := responseHeaderFn(context.Background(), rc, args(
		template.NewString("login"), template.NewString("Missing"),
	))
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.KindErrResponseMissingHeader, tErr.Kind)
}

func TestProfileFnResolvesOverride(t *testing.T) {
	rc := newTestContext()
	rc.overrides = template.OverrideMap{
		"host": {Value: template.NewString("example.com")},
	}
	lv, err := profileFn(context.Background(), rc, args(template.NewString("host")))
	require.NoError(t, err)
	v, err := lv.ToValue("")
	require.NoError(t, err)
	assert.Equal(t, "example.com", v.Str())
}

func TestProfileFnUnknownFieldIsUndefined(t *testing.T) {
	rc := newTestContext()
	lv, err := profileFn(context.Background(), rc, args(template.NewString("nope")))
	require.NoError(t, err)
	assert.Equal(t, template.LazyUndefined, lv.Kind)
}
