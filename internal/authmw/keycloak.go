package authmw

import (
	"context"
	"fmt"
	"time"

	"github.com/Nerzal/gocloak/v13"
)

// DirectoryUser is the slice of a Keycloak account the tracker cares about.
type DirectoryUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// Directory wraps the Keycloak admin client for user lookups. The tracker
// mirrors looked-up accounts into its own users table; Keycloak stays the
// source of truth for identity.
type Directory struct {
	client       *gocloak.GoCloak
	realm        string
	clientID     string
	clientSecret string
}

func NewDirectory(baseURL, realm, clientID, clientSecret string) (*Directory, error) {
	d := &Directory{
		client:       gocloak.NewClient("http://" + baseURL),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
	}

	if err := d.selfTest(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Directory) selfTest() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	jwt, err := d.client.LoginClient(ctx, d.clientID, d.clientSecret, d.realm)
	if err != nil {
		return fmt.Errorf("keycloak auth failed: %w", err)
	}

	_, err = d.client.GetRealm(ctx, jwt.AccessToken, d.realm)
	if err != nil {
		return fmt.Errorf("keycloak permission check failed: %w", err)
	}

	return nil
}

func (d *Directory) token(ctx context.Context) (string, error) {
	jwt, err := d.client.LoginClient(ctx, d.clientID, d.clientSecret, d.realm)
	if err != nil {
		return "", err
	}
	return jwt.AccessToken, nil
}

// LookupUser finds exactly one account by username.
func (d *Directory) LookupUser(ctx context.Context, username string) (*DirectoryUser, error) {
	token, err := d.token(ctx)
	if err != nil {
		return nil, err
	}

	users, err := d.client.GetUsers(ctx, token, d.realm, gocloak.GetUsersParams{
		Username: gocloak.StringP(username),
		Exact:    gocloak.BoolP(true),
		Max:      gocloak.IntP(2),
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found: %s", username)
	}
	if len(users) > 1 {
		return nil, fmt.Errorf("multiple users matched username: %s", username)
	}

	return toDirectoryUser(users[0]), nil
}

// ListUsers returns up to max directory accounts, for the assignable-users
// listing.
func (d *Directory) ListUsers(ctx context.Context, max int) ([]DirectoryUser, error) {
	if max <= 0 {
		max = 50
	}
	if max > 200 {
		max = 200
	}

	token, err := d.token(ctx)
	if err != nil {
		return nil, err
	}

	users, err := d.client.GetUsers(ctx, token, d.realm, gocloak.GetUsersParams{
		Max: gocloak.IntP(max),
	})
	if err != nil {
		return nil, err
	}

	out := make([]DirectoryUser, 0, len(users))
	for _, u := range users {
		out = append(out, *toDirectoryUser(u))
	}
	return out, nil
}

func toDirectoryUser(u *gocloak.User) *DirectoryUser {
	du := &DirectoryUser{}
	if u.Username != nil {
		du.Username = *u.Username
	}
	if u.Email != nil {
		du.Email = *u.Email
	}

	var first, last string
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}
	switch {
	case first != "" && last != "":
		du.Name = first + " " + last
	case first != "":
		du.Name = first
	case last != "":
		du.Name = last
	default:
		du.Name = du.Username
	}

	return du
}
