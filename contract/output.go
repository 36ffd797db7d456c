package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const statusSuccess = "success"

type objectRef struct {
	ObjectID string `json:"objectId"`
}

type ownedRef struct {
	Reference objectRef `json:"reference"`
}

type txEffects struct {
	Status struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"status"`
	Created []ownedRef `json:"created"`
}

type objectChange struct {
	Type       string `json:"type"`
	PackageID  string `json:"packageId"`
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
}

// txResponse is the transaction block shape shared by the CLI's --json output
// and the JSON-RPC API.
type txResponse struct {
	Digest        string         `json:"digest"`
	Effects       *txEffects     `json:"effects"`
	ObjectChanges []objectChange `json:"objectChanges"`
}

// extractJSON drops whatever the CLI printed before the first '{'. Warnings
// and progress lines precede the document.
func extractJSON(raw []byte) ([]byte, error) {
	i := bytes.IndexByte(raw, '{')
	if i < 0 {
		return nil, &OutputError{Kind: ErrMalformedOutput, Msg: "no JSON object in command output", Raw: string(raw)}
	}
	return raw[i:], nil
}

func parseTxResponse(raw []byte) (*txResponse, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var resp txResponse
	if err := json.NewDecoder(bytes.NewReader(doc)).Decode(&resp); err != nil {
		return nil, &OutputError{Kind: ErrMalformedOutput, Msg: err.Error(), Raw: string(doc)}
	}
	return &resp, nil
}

// checkStatus fails unless effects report success. With required false a
// response without effects passes.
func (r *txResponse) checkStatus(required bool) error {
	if r.Effects == nil {
		if required {
			return &TransactionError{Digest: r.Digest, Reason: "response has no effects"}
		}
		return nil
	}
	if r.Effects.Status.Status != statusSuccess {
		return &TransactionError{Digest: r.Digest, Status: r.Effects.Status.Status, Reason: r.Effects.Status.Error}
	}
	return nil
}

func (r *txResponse) digest() (string, error) {
	if r.Digest == "" {
		return "", &OutputError{Kind: ErrMissingDigest, Msg: "transaction digest not found in response"}
	}
	return r.Digest, nil
}

// packageID returns the single published package.
func (r *txResponse) packageID() (string, error) {
	var ids []string
	for _, c := range r.ObjectChanges {
		if c.Type == "published" {
			ids = append(ids, c.PackageID)
		}
	}
	switch {
	case len(ids) == 0:
		return "", &OutputError{Kind: ErrNoPackageID, Msg: "no published object change in response"}
	case len(ids) > 1:
		return "", &OutputError{Kind: ErrNoPackageID, Msg: fmt.Sprintf("%d published object changes in response", len(ids))}
	case ids[0] == "":
		return "", &OutputError{Kind: ErrNoPackageID, Msg: "published object change has no package id"}
	}
	return ids[0], nil
}

func (r *txResponse) createdObject() (string, error) {
	if r.Effects == nil || len(r.Effects.Created) == 0 || r.Effects.Created[0].Reference.ObjectID == "" {
		return "", &OutputError{Kind: ErrObjectNotFound, Msg: fmt.Sprintf("transaction %s created no objects", r.Digest)}
	}
	return r.Effects.Created[0].Reference.ObjectID, nil
}
