package asset

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mx-space/asset-gateway/internal/pkg/cloudinary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockDeleter struct {
	mock.Mock
}

func (m *mockDeleter) DeleteByToken(ctx context.Context, token string) (json.RawMessage, error) {
	args := m.Called(ctx, token)
	res, _ := args.Get(0).(json.RawMessage)
	return res, args.Error(1)
}

func (m *mockDeleter) DeleteResources(ctx context.Context, publicIDs []string, deliveryType, resourceType string, invalidate bool) (json.RawMessage, error) {
	args := m.Called(ctx, publicIDs, deliveryType, resourceType, invalidate)
	res, _ := args.Get(0).(json.RawMessage)
	return res, args.Error(1)
}

func calledTokens(m *mockDeleter) []string {
	out := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		if call.Method == "DeleteByToken" {
			out = append(out, call.Arguments.String(1))
		}
	}
	return out
}

func TestDeleteByTokens_EmptyInputMakesNoCalls(t *testing.T) {
	for _, tokens := range [][]string{nil, {}, {"", ""}} {
		d := &mockDeleter{}
		svc := NewService(d, zap.NewNop())

		report := svc.DeleteByTokens(context.Background(), tokens)

		assert.True(t, report.OK)
		assert.Empty(t, report.Deleted)
		assert.Empty(t, report.Failed)
		assert.NotNil(t, report.Deleted)
		assert.NotNil(t, report.Failed)
		d.AssertNotCalled(t, "DeleteByToken", mock.Anything, mock.Anything)
	}
}

func TestDeleteByTokens_IsolatesFailures(t *testing.T) {
	d := &mockDeleter{}
	d.On("DeleteByToken", mock.Anything, "a").Return(json.RawMessage(`{"result":"ok"}`), nil).Once()
	d.On("DeleteByToken", mock.Anything, "b").Return(nil, errors.New("Invalid token")).Once()
	d.On("DeleteByToken", mock.Anything, "c").Return(json.RawMessage(`{"result":"ok","c":1}`), nil).Once()

	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(d, zap.New(core))

	report := svc.DeleteByTokens(context.Background(), []string{"a", "b", "c"})

	require.True(t, report.OK)
	require.Len(t, report.Deleted, 2)
	assert.Equal(t, "a", report.Deleted[0].Token)
	assert.JSONEq(t, `{"result":"ok"}`, string(report.Deleted[0].Result))
	assert.Equal(t, "c", report.Deleted[1].Token)
	assert.Equal(t, []FailedToken{{Token: "b", Error: "Invalid token"}}, report.Failed)
	assert.Equal(t, []string{"a", "b", "c"}, calledTokens(d))
	assert.Equal(t, 1, logs.FilterMessage("delete by token failed").Len())
	d.AssertExpectations(t)
}

func TestDeleteByTokens_LogsProviderStatus(t *testing.T) {
	d := &mockDeleter{}
	d.On("DeleteByToken", mock.Anything, "gone").Return(nil, &cloudinary.APIError{StatusCode: 404, Message: "Invalid token"})

	core, logs := observer.New(zapcore.WarnLevel)
	report := NewService(d, zap.New(core)).DeleteByTokens(context.Background(), []string{"gone"})

	assert.Equal(t, []FailedToken{{Token: "gone", Error: "Invalid token"}}, report.Failed)
	entries := logs.FilterMessage("delete by token failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(404), entries[0].ContextMap()["status"])
}

func TestDeleteByTokens_FiltersEmptyEntriesKeepingOrder(t *testing.T) {
	d := &mockDeleter{}
	d.On("DeleteByToken", mock.Anything, mock.AnythingOfType("string")).Return(json.RawMessage(`{}`), nil)

	svc := NewService(d, nil)
	report := svc.DeleteByTokens(context.Background(), []string{"", "tok1", "", "tok2"})

	assert.Equal(t, []string{"tok1", "tok2"}, calledTokens(d))
	require.Len(t, report.Deleted, 2)
	assert.Equal(t, "tok1", report.Deleted[0].Token)
	assert.Equal(t, "tok2", report.Deleted[1].Token)
	d.AssertNumberOfCalls(t, "DeleteByToken", 2)
}

func TestDeleteByTokens_DuplicatesAreNotCollapsed(t *testing.T) {
	d := &mockDeleter{}
	d.On("DeleteByToken", mock.Anything, "dup").Return(json.RawMessage(`{}`), nil).Once()
	d.On("DeleteByToken", mock.Anything, "dup").Return(nil, errors.New("Invalid token")).Once()

	report := NewService(d, nil).DeleteByTokens(context.Background(), []string{"dup", "dup"})

	assert.Len(t, report.Deleted, 1)
	assert.Len(t, report.Failed, 1)
	d.AssertNumberOfCalls(t, "DeleteByToken", 2)
}

func TestDeleteByPublicIDs_EmptyInputMakesNoCall(t *testing.T) {
	d := &mockDeleter{}
	svc := NewService(d, nil)

	res, err := svc.DeleteByPublicIDs(context.Background(), []string{"", ""}, "image", "upload")

	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":{}}`, string(res))
	d.AssertNotCalled(t, "DeleteResources", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteByPublicIDs_SingleBatchedCallWithInvalidate(t *testing.T) {
	d := &mockDeleter{}
	provider := json.RawMessage(`{"deleted":{"x":"deleted","y":"deleted"}}`)
	d.On("DeleteResources", mock.Anything, []string{"x", "y"}, "upload", "video", true).Return(provider, nil).Once()

	res, err := NewService(d, nil).DeleteByPublicIDs(context.Background(), []string{"x", "", "y"}, "video", "upload")

	require.NoError(t, err)
	assert.JSONEq(t, string(provider), string(res))
	d.AssertExpectations(t)
	d.AssertNumberOfCalls(t, "DeleteResources", 1)
}

func TestDeleteByPublicIDs_PropagatesError(t *testing.T) {
	d := &mockDeleter{}
	d.On("DeleteResources", mock.Anything, []string{"x"}, "upload", "image", true).Return(nil, errors.New("boom"))

	_, err := NewService(d, nil).DeleteByPublicIDs(context.Background(), []string{"x"}, "image", "upload")

	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}
