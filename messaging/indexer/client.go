// Package indexer is the read side: a GraphQL-shaped query client over the
// eventually-consistent indexed view of chain events. It only ever reads;
// writes go through chainwriter. Scopes call the named queries here and never
// compose query strings themselves.
package indexer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"orgmachine/orgmachine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Executor runs one named query. Scopes depend on this interface so tests can
// feed canned documents without a server.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error
}

// HTTPExecutor posts queries to the indexer endpoint from config.
type HTTPExecutor struct {
	URL    string
	client *http.Client
}

func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{
		URL:    orgmachine.MakeOrGetConfig().GetString("indexerUrl"),
		client: &http.Client{},
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (h *HTTPExecutor) Execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", h.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		orgmachine.LogCLI(fmt.Sprintf("indexer returned %d for %s", resp.StatusCode, resp.Request.URL.String()), 2)
		return fmt.Errorf("indexer status %d", resp.StatusCode)
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var envelope graphqlResponse
	if err = json.Unmarshal(bodyBytes, &envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("indexer: %s", envelope.Errors[0].Message)
	}
	if envelope.Data == nil {
		return fmt.Errorf("indexer: empty data")
	}
	return json.Unmarshal(envelope.Data, out)
}

// Client wraps an Executor with the named queries the scopes consume.
type Client struct {
	exec Executor
}

func NewClient(exec Executor) *Client {
	return &Client{exec: exec}
}

func (c *Client) OrgByName(ctx context.Context, name string) (*OrgRef, error) {
	var out struct {
		Org *OrgRef `json:"organization"`
	}
	err := c.exec.Execute(ctx, queryOrgByName, map[string]interface{}{"name": name}, &out)
	if err != nil {
		return nil, err
	}
	if out.Org == nil {
		return nil, fmt.Errorf("no organization named %s", name)
	}
	return out.Org, nil
}

func (c *Client) OrgFullData(ctx context.Context, id orgmachine.OrgID) (*OrgDocument, error) {
	var out struct {
		Org *OrgDocument `json:"organization"`
	}
	err := c.exec.Execute(ctx, queryOrgFullData, map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	if out.Org == nil {
		return nil, fmt.Errorf("organization %s not indexed", id)
	}
	return out.Org, nil
}

func (c *Client) VotingData(ctx context.Context, id orgmachine.OrgID) (*VotingDocument, error) {
	var out VotingDocument
	err := c.exec.Execute(ctx, queryVotingData, map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProjectsData(ctx context.Context, id orgmachine.OrgID) (*ProjectsDocument, error) {
	var out ProjectsDocument
	err := c.exec.Execute(ctx, queryProjectsData, map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UserData takes the composite org-scoped user id (orgId-address) plus the
// bare address for the global account lookup.
func (c *Client) UserData(ctx context.Context, orgUserID string, address orgmachine.Address) (*UserDataDocument, error) {
	var out UserDataDocument
	err := c.exec.Execute(ctx, queryUserData, map[string]interface{}{
		"id":      orgUserID,
		"address": address,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrgStructureData(ctx context.Context, id orgmachine.OrgID) (*StructureDocument, error) {
	var out StructureDocument
	err := c.exec.Execute(ctx, queryOrgStructureData, map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TreasuryData(ctx context.Context, id orgmachine.OrgID) (*TreasuryDocument, error) {
	var out TreasuryDocument
	err := c.exec.Execute(ctx, queryTreasuryData, map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VouchesForOrg(ctx context.Context, eligibilityModuleID string) (*VouchesDocument, error) {
	var out VouchesDocument
	err := c.exec.Execute(ctx, queryVouchesForOrg, map[string]interface{}{"module": eligibilityModuleID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenRequests filters by requester when the address is non-empty.
func (c *Client) TokenRequests(ctx context.Context, token orgmachine.Address, requester orgmachine.Address) (*TokenRequestsDocument, error) {
	vars := map[string]interface{}{"token": token}
	if requester != "" {
		vars["requester"] = requester
	}
	var out TokenRequestsDocument
	err := c.exec.Execute(ctx, queryTokenRequests, vars, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApproverHats(ctx context.Context, token orgmachine.Address) (*ApproverHatsDocument, error) {
	var out ApproverHatsDocument
	err := c.exec.Execute(ctx, queryApproverHats, map[string]interface{}{"token": token}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
