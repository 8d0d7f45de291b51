// Package identitysvc talks to the upstream identity provider that
// authenticates portal members. The portal only ever reads profiles from it;
// account management stays upstream.
package identitysvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/user"
)

type httpProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ user.IdentityProvider = (*httpProvider)(nil)

func NewHTTPProvider(conf *core.Config) *httpProvider {
	return &httpProvider{
		baseURL: conf.Identity.BaseURL,
		apiKey:  conf.Identity.APIKey,
		client:  &http.Client{Timeout: conf.Identity.Timeout},
	}
}

func (p *httpProvider) UserByID(ctx context.Context, id string) (user.IdentityProfile, error) {
	endpoint := fmt.Sprintf("%s/users/%s", p.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return user.IdentityProfile{}, errors.Wrap(err, "building identity request")
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return user.IdentityProfile{}, errors.Wrap(err, "calling identity provider")
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return user.IdentityProfile{}, user.ErrNotFound
	case res.StatusCode != http.StatusOK:
		return user.IdentityProfile{}, errors.Errorf("identity provider: unexpected status %d", res.StatusCode)
	}

	var profile user.IdentityProfile
	if err = json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return user.IdentityProfile{}, errors.Wrap(err, "decoding identity profile")
	}
	return profile, nil
}

// StaticProvider serves profiles from a fixed map; used in tests and local
// setups without an upstream provider.
type StaticProvider struct {
	Profiles map[string]user.IdentityProfile
}

var _ user.IdentityProvider = (*StaticProvider)(nil)

func (p *StaticProvider) UserByID(_ context.Context, id string) (user.IdentityProfile, error) {
	if profile, ok := p.Profiles[id]; ok {
		return profile, nil
	}
	return user.IdentityProfile{}, user.ErrNotFound
}
