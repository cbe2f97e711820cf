package resolver

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
)

// ResolvedName is the subgraph's view of a registered name
type ResolvedName struct {
	// TokenID is the decimal token identifier the caller asked about
	TokenID string
	// Label is the registered label without the parent zone
	Label string
	// Name is the full dot-separated name
	Name string
	// Wrapped reports whether the name is held by the wrapper contract
	Wrapped bool
	// Owner is the domain owner as the subgraph sees it. Informational only;
	// ownership in the store comes from chain events.
	Owner string
	// Registrant is the address that registered the name
	Registrant string
	// ExpiresAt is the registration expiry, nil when the subgraph omits it
	ExpiresAt *time.Time
	// RegistrationDate is when the name was registered
	RegistrationDate *time.Time
	// Texts lists the resolver text record keys set on the domain
	Texts []string
}

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
	Query         string      `json:"query"`
	Variables     interface{} `json:"variables"`
	OperationName string      `json:"operationName"`
}

// registrationsResponse represents the subgraph response envelope
type registrationsResponse struct {
	Data struct {
		Registrations []struct {
			ID               string  `json:"id"`
			LabelName        *string `json:"labelName"`
			ExpiryDate       *string `json:"expiryDate"`
			RegistrationDate *string `json:"registrationDate"`
			Registrant       *struct {
				ID string `json:"id"`
			} `json:"registrant"`
			Domain struct {
				Name  *string `json:"name"`
				Owner *struct {
					ID string `json:"id"`
				} `json:"owner"`
				Resolver *struct {
					Texts []string `json:"texts"`
				} `json:"resolver"`
				WrappedDomain *struct {
					ExpiryDate *string `json:"expiryDate"`
				} `json:"wrappedDomain"`
			} `json:"domain"`
		} `json:"registrations"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

const registrationsQuery = `query Registrations($ids: [String!]!) {
  registrations(where: {id_in: $ids}) {
    id
    labelName
    expiryDate
    registrationDate
    registrant {
      id
    }
    domain {
      name
      owner {
        id
      }
      resolver {
        texts
      }
      wrappedDomain {
        expiryDate
      }
    }
  }
}`

// GraphClient defines the interface for subgraph lookups to enable mocking
//
//go:generate mockgen -source=client.go -destination=../mocks/graph_client.go -package=mocks -mock_names=GraphClient=MockGraphClient
type GraphClient interface {
	// NamesByTokenIDs resolves a batch of token identifiers in a single
	// query. Tokens the subgraph does not know are absent from the result.
	NamesByTokenIDs(ctx context.Context, tokenIDs []string) (map[string]*ResolvedName, error)
}

// SubgraphClient implements GraphClient against a GraphQL subgraph endpoint
type SubgraphClient struct {
	httpClient adapter.HTTPClient
	apiURL     string
	apiKey     string
	json       adapter.JSON
}

// NewSubgraphClient creates a new subgraph client. apiKey may be empty for
// unauthenticated endpoints.
func NewSubgraphClient(httpClient adapter.HTTPClient, apiURL, apiKey string, json adapter.JSON) GraphClient {
	return &SubgraphClient{
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
		json:       json,
	}
}

// NamesByTokenIDs resolves a batch of token identifiers in a single query
func (c *SubgraphClient) NamesByTokenIDs(ctx context.Context, tokenIDs []string) (map[string]*ResolvedName, error) {
	// Registration ids in the subgraph are hex label hashes
	ids := make([]string, 0, len(tokenIDs))
	byHash := make(map[string]string, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		hash, err := TokenIDToHash(tokenID)
		if err != nil {
			return nil, err
		}
		hex := strings.ToLower(hash.Hex())
		ids = append(ids, hex)
		byHash[hex] = tokenID
	}

	request := GraphQLRequest{
		Query:         registrationsQuery,
		Variables:     map[string]interface{}{"ids": ids},
		OperationName: "Registrations",
	}

	requestBody, err := c.json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.apiKey}
	}

	responseBody, err := c.httpClient.Post(ctx, c.apiURL, "application/json", bytes.NewReader(requestBody), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to call subgraph: %w", err)
	}

	var response registrationsResponse
	if err := c.json.Unmarshal(responseBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subgraph response: %w", err)
	}
	if len(response.Errors) > 0 {
		return nil, fmt.Errorf("subgraph returned error: %s", response.Errors[0].Message)
	}

	resolved := make(map[string]*ResolvedName, len(response.Data.Registrations))
	for _, reg := range response.Data.Registrations {
		tokenID, ok := byHash[strings.ToLower(reg.ID)]
		if !ok {
			continue
		}
		if reg.LabelName == nil || reg.Domain.Name == nil {
			// Label not known to the subgraph yet, keep the placeholder
			continue
		}

		name := &ResolvedName{
			TokenID: tokenID,
			Label:   *reg.LabelName,
			Name:    *reg.Domain.Name,
			Wrapped: reg.Domain.WrappedDomain != nil,
		}
		if reg.Domain.Owner != nil {
			name.Owner = strings.ToLower(reg.Domain.Owner.ID)
		}
		if reg.Registrant != nil {
			name.Registrant = strings.ToLower(reg.Registrant.ID)
		}
		if reg.Domain.Resolver != nil {
			name.Texts = reg.Domain.Resolver.Texts
		}
		expiry := reg.ExpiryDate
		if name.Wrapped && reg.Domain.WrappedDomain.ExpiryDate != nil {
			expiry = reg.Domain.WrappedDomain.ExpiryDate
		}
		if expiry != nil {
			seconds, err := strconv.ParseInt(*expiry, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse expiry %q: %w", *expiry, err)
			}
			t := time.Unix(seconds, 0).UTC()
			name.ExpiresAt = &t
		}
		if reg.RegistrationDate != nil {
			seconds, err := strconv.ParseInt(*reg.RegistrationDate, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse registration date %q: %w", *reg.RegistrationDate, err)
			}
			t := time.Unix(seconds, 0).UTC()
			name.RegistrationDate = &t
		}

		resolved[tokenID] = name
	}

	return resolved, nil
}
