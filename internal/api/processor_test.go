package api

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"scoringapi/internal/store"
	"scoringapi/internal/store/mocks"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 28, 17, 30, 0, 0, time.Local)
}

func userToken(account, login string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(account+login+salt)))
}

func adminToken(now time.Time) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(now.Format(adminTokenLayout)+adminSalt)))
}

func newTestProcessor(t *testing.T, st store.Store) *Processor {
	t.Helper()
	log := zerolog.Nop()
	return newProcessor(st, &log, fixedNow, nil)
}

func envelope(method string, args map[string]any) map[string]any {
	return map[string]any{
		"account":   "horns&hoofs",
		"login":     "h&f",
		"token":     userToken("horns&hoofs", "h&f"),
		"method":    method,
		"arguments": args,
	}
}

func TestHandle_EnvelopeValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty body", map[string]any{}},
		{
			"login missing",
			map[string]any{"account": "h&f", "token": "x", "method": "online_score", "arguments": map[string]any{}},
		},
		{
			"method empty",
			map[string]any{"login": "h&f", "token": "x", "method": "", "arguments": map[string]any{}},
		},
		{
			"arguments not an object",
			map[string]any{"login": "h&f", "token": "x", "method": "online_score", "arguments": []any{"x"}},
		},
		{
			"token wrong type",
			map[string]any{"login": "h&f", "token": 42.0, "method": "online_score", "arguments": map[string]any{}},
		},
	}

	p := newTestProcessor(t, store.NewInMemory())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, code, err := p.Handle(context.Background(), tt.body, &RequestContext{})
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, code)
			assert.NotEmpty(t, result)
		})
	}
}

func TestHandle_Forbidden(t *testing.T) {
	p := newTestProcessor(t, store.NewInMemory())

	body := envelope(MethodOnlineScore, map[string]any{"phone": "79175002040", "email": "a@b"})
	body["token"] = "deadbeef"

	result, code, err := p.Handle(context.Background(), body, &RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Forbidden", result)
}

func TestHandle_AdminAuth(t *testing.T) {
	p := newTestProcessor(t, store.NewInMemory())

	body := envelope(MethodOnlineScore, map[string]any{"phone": "79175002040", "email": "a@b"})
	body["login"] = AdminLogin

	// token from the previous hour window
	body["token"] = adminToken(fixedNow().Add(-time.Hour))
	_, code, err := p.Handle(context.Background(), body, &RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, code)

	body["token"] = adminToken(fixedNow())
	_, code, err = p.Handle(context.Background(), body, &RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
}

func TestHandle_UnknownMethod(t *testing.T) {
	p := newTestProcessor(t, store.NewInMemory())

	result, code, err := p.Handle(context.Background(), envelope("best_method", map[string]any{}), &RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, result.(string), "unknown method")
}

func TestHandle_OnlineScore(t *testing.T) {
	p := newTestProcessor(t, store.NewInMemory())
	reqCtx := &RequestContext{}

	body := envelope(MethodOnlineScore, map[string]any{
		"phone": "79175002040",
		"email": "stupnikov@otus.ru",
	})

	result, code, err := p.Handle(context.Background(), body, reqCtx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"score": 3.0}, result)
	assert.Equal(t, []string{"phone", "email"}, reqCtx.Has)
}

func TestHandle_OnlineScore_FullProfile(t *testing.T) {
	p := newTestProcessor(t, store.NewInMemory())
	reqCtx := &RequestContext{}

	body := envelope(MethodOnlineScore, map[string]any{
		"first_name": "a",
		"last_name":  "b",
		"email":      "a@b",
		"phone":      79175002040.0,
		"birthday":   "01.01.1990",
		"gender":     1.0,
	})

	result, code, err := p.Handle(context.Background(), body, reqCtx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"score": 5.0}, result)
	assert.Equal(t, []string{"phone", "email", "first_name", "last_name", "birthday", "gender"}, reqCtx.Has)
}

func TestHandle_OnlineScore_ArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"no pair supplied", map[string]any{"first_name": "a"}},
		{"half pairs only", map[string]any{"phone": "79175002040", "first_name": "a", "gender": 1.0}},
		{"bad phone", map[string]any{"phone": "89175002040", "email": "a@b"}},
		{"bad email", map[string]any{"phone": "79175002040", "email": "ab"}},
		{"bad birthday", map[string]any{"gender": 1.0, "birthday": "1890-01-01"}},
		{"gender out of range", map[string]any{"gender": 5.0, "birthday": "01.01.1990"}},
	}

	p := newTestProcessor(t, store.NewInMemory())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code, err := p.Handle(context.Background(), envelope(MethodOnlineScore, tt.args), &RequestContext{})
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, code)
		})
	}
}

func TestHandle_OnlineScore_NullsStillPair(t *testing.T) {
	// Presence is what pairs, an explicit null still counts.
	p := newTestProcessor(t, store.NewInMemory())
	reqCtx := &RequestContext{}

	body := envelope(MethodOnlineScore, map[string]any{"phone": nil, "email": nil})

	result, code, err := p.Handle(context.Background(), body, reqCtx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"score": 0.0}, result)
	assert.Empty(t, reqCtx.Has)
}

func TestHandle_OnlineScore_AdminBypassesStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no EXPECT calls: any store access fails the test
	mockStore := mocks.NewMockStore(ctrl)
	p := newTestProcessor(t, mockStore)

	body := envelope(MethodOnlineScore, map[string]any{"phone": "79175002040", "email": "a@b"})
	body["login"] = AdminLogin
	body["token"] = adminToken(fixedNow())

	reqCtx := &RequestContext{}
	result, code, err := p.Handle(context.Background(), body, reqCtx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"score": adminScore}, result)
	assert.Equal(t, []string{"phone", "email"}, reqCtx.Has)
}

func TestHandle_OnlineScore_StoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	down := errors.New("connection refused")
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().CacheGet(gomock.Any(), gomock.Any()).Return(nil, down)
	mockStore.EXPECT().CacheSet(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(down)

	p := newTestProcessor(t, mockStore)

	body := envelope(MethodOnlineScore, map[string]any{"phone": "79175002040", "email": "a@b"})

	result, code, err := p.Handle(context.Background(), body, &RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"score": 3.0}, result)
}

func TestHandle_ClientsInterests(t *testing.T) {
	st := store.NewInMemory()
	require.NoError(t, st.CacheSet(context.Background(), "1", []string{"books", "travel"}, 0))
	require.NoError(t, st.CacheSet(context.Background(), "2", []string{"pets"}, 0))

	p := newTestProcessor(t, st)
	reqCtx := &RequestContext{}

	body := envelope(MethodClientsInterests, map[string]any{
		"client_ids": []any{1.0, 2.0},
		"date":       "28.08.2026",
	})

	result, code, err := p.Handle(context.Background(), body, reqCtx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, reqCtx.NumberOfClients)
	assert.Equal(t, map[string]any{
		"1": []any{"books", "travel"},
		"2": []any{"pets"},
	}, result)
}

func TestHandle_ClientsInterests_MissingClientIsHardError(t *testing.T) {
	st := store.NewInMemory()
	require.NoError(t, st.CacheSet(context.Background(), "1", []string{"books"}, 0))

	p := newTestProcessor(t, st)

	body := envelope(MethodClientsInterests, map[string]any{"client_ids": []any{1.0, 2.0}})

	result, code, err := p.Handle(context.Background(), body, &RequestContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrKeyNotSet)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Nil(t, result)
}

func TestHandle_ClientsInterests_ArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"client_ids missing", map[string]any{"date": "28.08.2026"}},
		{"client_ids empty", map[string]any{"client_ids": []any{}}},
		{"negative id", map[string]any{"client_ids": []any{-1.0}}},
		{"bad date", map[string]any{"client_ids": []any{1.0}, "date": "XXX"}},
	}

	p := newTestProcessor(t, store.NewInMemory())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code, err := p.Handle(context.Background(), envelope(MethodClientsInterests, tt.args), &RequestContext{})
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, code)
		})
	}
}
