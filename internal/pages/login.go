package pages

import (
	"context"
	"errors"
	"fmt"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/execution"
	"hotelbooker/internal/waits"
)

const (
	usernameInput = "#ctl00_cphMainContent_txtUserName"
	passwordInput = "#ctl00_cphMainContent_txtPassword"
	loginButton   = "#ctl00_cphMainContent_btnLogin"
)

// Credentials identify the account used against one environment.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// LoginPage drives the HotelBooker sign-in form. Every error it returns is
// critical.
type LoginPage struct {
	base
	creds Credentials
}

func NewLoginPage(page browser.Page, w *waits.Coordinator, log Annotator, creds Credentials) *LoginPage {
	return &LoginPage{base: newBase(page, w, log), creds: creds}
}

// Navigate opens the environment's login URL.
func (p *LoginPage) Navigate(ctx context.Context) error {
	if p.creds.URL == "" {
		return execution.Critical(errors.New("no HotelBooker URL configured"))
	}
	p.action(ctx, "Navigating to %s", p.creds.URL)
	if err := p.page.Navigate(ctx, p.creds.URL); err != nil {
		return execution.Critical(fmt.Errorf("failed to open login page: %w", err))
	}
	p.log.LogInfo(ctx, "Navigated to HotelBooker at "+p.creds.URL)
	return nil
}

func (p *LoginPage) EnterUserName(ctx context.Context) error {
	if err := p.waits.WaitForElementClickable(ctx, usernameInput); err != nil {
		return execution.Critical(err)
	}
	p.action(ctx, "Entering user name %s", p.creds.Username)
	return execution.Critical(p.page.Fill(ctx, usernameInput, p.creds.Username))
}

func (p *LoginPage) EnterPassword(ctx context.Context) error {
	if err := p.waits.WaitForElementClickable(ctx, passwordInput); err != nil {
		return execution.Critical(err)
	}
	p.action(ctx, "Entering password")
	return execution.Critical(p.page.Fill(ctx, passwordInput, p.creds.Password))
}

// ClickLogin submits the form and waits for the landing page to settle.
func (p *LoginPage) ClickLogin(ctx context.Context) error {
	if err := p.clickWhenReady(ctx, loginButton); err != nil {
		return execution.Critical(err)
	}
	if err := p.waits.WaitForPageStability(ctx); err != nil {
		return execution.Critical(fmt.Errorf("page did not settle after login: %w", err))
	}
	p.log.LogInfo(ctx, "Logged in as "+p.creds.Username)
	return nil
}

// Login runs the whole sign-in flow.
func (p *LoginPage) Login(ctx context.Context) error {
	for _, step := range []func(context.Context) error{p.Navigate, p.EnterUserName, p.EnterPassword, p.ClickLogin} {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
