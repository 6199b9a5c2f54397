package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBase = "https://api.github.com"

// GithubUser GitHub 账号信息，用于自动开通本地评论账号
type GithubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// GithubOAuth GitHub 登录流程封装
type GithubOAuth struct {
	conf    *oauth2.Config
	apiBase string
}

func NewGithubOAuth(clientID, clientSecret, redirectURI string) *GithubOAuth {
	return &GithubOAuth{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			// user:email 用于读取未公开的主邮箱
			Scopes:   []string{"user:email"},
			Endpoint: github.Endpoint,
		},
		apiBase: githubAPIBase,
	}
}

// GetAuthURL 组装授权页地址
func (g *GithubOAuth) GetAuthURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

// Exchange 用授权码换取 access token
func (g *GithubOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.conf.Exchange(ctx, code)
}

// GetUser 拉取登录用户资料，公开邮箱为空时回退到主邮箱
func (g *GithubOAuth) GetUser(ctx context.Context, token *oauth2.Token) (*GithubUser, error) {
	client := g.conf.Client(ctx, token)

	var user GithubUser
	if err := getJSON(client, g.apiBase+"/user", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch github profile: %w", err)
	}

	if user.Email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := getJSON(client, g.apiBase+"/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary {
					user.Email = e.Email
					break
				}
			}
			if user.Email == "" && len(emails) > 0 {
				user.Email = emails[0].Email
			}
		}
	}

	return &user, nil
}

func getJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github api %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
