package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/mocks"
	"github.com/grailsmarket/backend-sub000/internal/resolver"
)

const testSubgraphURL = "https://subgraph.example.com/query"

func labelTokenID(label string) string {
	return resolver.HashToTokenID(resolver.LabelHash(label))
}

func registrationID(label string) string {
	return strings.ToLower(resolver.LabelHash(label).Hex())
}

func TestSubgraphClient_NamesByTokenIDs_ResolvesName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "", adapter.NewJSON())

	ctx := context.Background()
	tokenID := labelTokenID("alice")

	response := fmt.Sprintf(`{
		"data": {
			"registrations": [
				{
					"id": %q,
					"labelName": "alice",
					"expiryDate": "1893456000",
					"domain": {"name": "alice.eth"}
				}
			]
		}
	}`, registrationID("alice"))

	mockHTTP.EXPECT().
		Post(ctx, testSubgraphURL, "application/json", gomock.Any(), nil).
		DoAndReturn(func(_ context.Context, _, _ string, body io.Reader, _ map[string]string) ([]byte, error) {
			requestBody, err := io.ReadAll(body)
			assert.NoError(t, err)
			assert.Contains(t, string(requestBody), registrationID("alice"))
			return []byte(response), nil
		})

	resolved, err := client.NamesByTokenIDs(ctx, []string{tokenID})

	assert.NoError(t, err)
	assert.Len(t, resolved, 1)
	name := resolved[tokenID]
	assert.Equal(t, "alice", name.Label)
	assert.Equal(t, "alice.eth", name.Name)
	assert.False(t, name.Wrapped)
	assert.Equal(t, time.Unix(1893456000, 0).UTC(), *name.ExpiresAt)
}

func TestSubgraphClient_NamesByTokenIDs_WrappedName_PrefersWrapperExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "", adapter.NewJSON())

	ctx := context.Background()
	tokenID := labelTokenID("bob")

	response := fmt.Sprintf(`{
		"data": {
			"registrations": [
				{
					"id": %q,
					"labelName": "bob",
					"expiryDate": "1700000000",
					"domain": {
						"name": "bob.eth",
						"wrappedDomain": {"expiryDate": "1800000000"}
					}
				}
			]
		}
	}`, registrationID("bob"))

	mockHTTP.EXPECT().
		Post(ctx, testSubgraphURL, "application/json", gomock.Any(), nil).
		Return([]byte(response), nil)

	resolved, err := client.NamesByTokenIDs(ctx, []string{tokenID})

	assert.NoError(t, err)
	name := resolved[tokenID]
	assert.True(t, name.Wrapped)
	assert.Equal(t, time.Unix(1800000000, 0).UTC(), *name.ExpiresAt)
}

func TestSubgraphClient_NamesByTokenIDs_ParsesProfileFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "", adapter.NewJSON())

	ctx := context.Background()
	tokenID := labelTokenID("alice")

	response := fmt.Sprintf(`{
		"data": {
			"registrations": [
				{
					"id": %q,
					"labelName": "alice",
					"expiryDate": "1893456000",
					"registrationDate": "1600000000",
					"registrant": {"id": "0x3333333333333333333333333333333333333333"},
					"domain": {
						"name": "alice.eth",
						"owner": {"id": "0x2222222222222222222222222222222222222222"},
						"resolver": {"texts": ["url", "avatar"]}
					}
				}
			]
		}
	}`, registrationID("alice"))

	mockHTTP.EXPECT().
		Post(ctx, testSubgraphURL, "application/json", gomock.Any(), nil).
		DoAndReturn(func(_ context.Context, _, _ string, body io.Reader, _ map[string]string) ([]byte, error) {
			requestBody, err := io.ReadAll(body)
			assert.NoError(t, err)
			assert.Contains(t, string(requestBody), "registrationDate")
			assert.Contains(t, string(requestBody), "registrant")
			assert.Contains(t, string(requestBody), "texts")
			return []byte(response), nil
		})

	resolved, err := client.NamesByTokenIDs(ctx, []string{tokenID})

	assert.NoError(t, err)
	name := resolved[tokenID]
	assert.Equal(t, "0x2222222222222222222222222222222222222222", name.Owner)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", name.Registrant)
	assert.Equal(t, time.Unix(1600000000, 0).UTC(), *name.RegistrationDate)
	assert.Equal(t, []string{"url", "avatar"}, name.Texts)
}

func TestSubgraphClient_NamesByTokenIDs_SkipsUnlabeledRegistrations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "", adapter.NewJSON())

	ctx := context.Background()
	tokenID := labelTokenID("carol")

	// The subgraph knows the registration but has not decoded the label yet
	response := fmt.Sprintf(`{
		"data": {
			"registrations": [
				{"id": %q, "labelName": null, "domain": {"name": null}}
			]
		}
	}`, registrationID("carol"))

	mockHTTP.EXPECT().
		Post(ctx, testSubgraphURL, "application/json", gomock.Any(), nil).
		Return([]byte(response), nil)

	resolved, err := client.NamesByTokenIDs(ctx, []string{tokenID})

	assert.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestSubgraphClient_NamesByTokenIDs_SendsAPIKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "secret-key", adapter.NewJSON())

	ctx := context.Background()
	tokenID := labelTokenID("dave")

	mockHTTP.EXPECT().
		Post(ctx, testSubgraphURL, "application/json", gomock.Any(),
			map[string]string{"Authorization": "Bearer secret-key"}).
		Return([]byte(`{"data": {"registrations": []}}`), nil)

	_, err := client.NamesByTokenIDs(ctx, []string{tokenID})

	assert.NoError(t, err)
}

func TestSubgraphClient_NamesByTokenIDs_GraphQLError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "", adapter.NewJSON())

	ctx := context.Background()

	mockHTTP.EXPECT().
		Post(ctx, testSubgraphURL, "application/json", gomock.Any(), nil).
		Return([]byte(`{"errors": [{"message": "rate limited"}]}`), nil)

	_, err := client.NamesByTokenIDs(ctx, []string{labelTokenID("eve")})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSubgraphClient_NamesByTokenIDs_TransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "", adapter.NewJSON())

	ctx := context.Background()

	mockHTTP.EXPECT().
		Post(ctx, testSubgraphURL, "application/json", gomock.Any(), nil).
		Return(nil, errors.New("connection refused"))

	_, err := client.NamesByTokenIDs(ctx, []string{labelTokenID("frank")})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call subgraph")
}

func TestSubgraphClient_NamesByTokenIDs_InvalidTokenID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	client := resolver.NewSubgraphClient(mockHTTP, testSubgraphURL, "", adapter.NewJSON())

	_, err := client.NamesByTokenIDs(context.Background(), []string{"not-a-number"})

	assert.Error(t, err)
}
