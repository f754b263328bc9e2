package pages

import (
	"context"
	"fmt"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/waits"
)

const (
	clientModal       = "div.modal-dialog"
	clientModalHeader = "div.modal-dialog h4"
	clientHeading     = "div.modal-dialog h2"
	modalCloseButton  = "button.close, button[aria-label='Close']"
	headerClient      = "#lnkClientSelect"
	clientFilterInput = "input[placeholder*='Filter Client List']"
	modalButtons      = "div.modal-dialog button"

	ClientGroupsTab = "Client Groups"
	ActionListTab   = "Action List"
	AllClientsTab   = "All Clients"
)

// ClientSelectionPage is the modal shown after login to pick the client
// account to book for.
type ClientSelectionPage struct {
	base
}

func NewClientSelectionPage(page browser.Page, w *waits.Coordinator, log Annotator) *ClientSelectionPage {
	return &ClientSelectionPage{base: newBase(page, w, log)}
}

// WaitForModal blocks until the modal and at least one client heading are
// visible.
func (p *ClientSelectionPage) WaitForModal(ctx context.Context) error {
	if err := p.waits.WaitForModalToLoad(ctx, clientModal); err != nil {
		return err
	}
	if err := p.waits.WaitForElementVisible(ctx, clientModalHeader); err != nil {
		return err
	}
	return p.waits.WaitForElementVisible(ctx, clientHeading)
}

// AvailableClients lists the client names shown in the modal.
func (p *ClientSelectionPage) AvailableClients(ctx context.Context) ([]string, error) {
	if err := p.WaitForModal(ctx); err != nil {
		return nil, err
	}
	return p.page.Texts(ctx, clientHeading)
}

// SelectClient clicks the client whose name matches name ignoring case and
// whitespace, then waits for the modal to close.
func (p *ClientSelectionPage) SelectClient(ctx context.Context, name string) error {
	if err := p.WaitForModal(ctx); err != nil {
		return err
	}
	i, err := p.indexOfText(ctx, clientHeading, name)
	if err != nil {
		return fmt.Errorf("client %q not found in client selection modal: %w", name, err)
	}
	if err := p.waits.WaitForElementClickable(ctx, clientHeading); err != nil {
		return err
	}
	p.action(ctx, "Selecting client %s", name)
	if err := p.page.ClickNth(ctx, clientHeading, i); err != nil {
		return err
	}
	if err := p.waits.WaitForElementToDisappear(ctx, clientModal); err != nil {
		return err
	}
	p.log.LogInfo(ctx, "Selected client "+name)
	return nil
}

func (p *ClientSelectionPage) IsClientDisplayedOnHeader(ctx context.Context) (bool, error) {
	return p.page.IsVisible(ctx, headerClient)
}

// HeaderClient returns the client name shown in the page header.
func (p *ClientSelectionPage) HeaderClient(ctx context.Context) (string, error) {
	texts, err := p.page.Texts(ctx, headerClient)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: %s", browser.ErrElementNotFound, headerClient)
	}
	return texts[0], nil
}

// FilterClients types into the modal's filter box.
func (p *ClientSelectionPage) FilterClients(ctx context.Context, filter string) error {
	if err := p.waits.WaitForElementClickable(ctx, clientFilterInput); err != nil {
		return err
	}
	if err := p.page.Fill(ctx, clientFilterInput, filter); err != nil {
		return err
	}
	return p.waits.WaitForAjaxCallsToComplete(ctx)
}

// OpenTab switches the modal to one of ClientGroupsTab, ActionListTab, or
// AllClientsTab.
func (p *ClientSelectionPage) OpenTab(ctx context.Context, tab string) error {
	if err := p.waits.WaitForElementClickable(ctx, modalButtons); err != nil {
		return err
	}
	if err := p.clickByText(ctx, modalButtons, tab); err != nil {
		return err
	}
	return p.waits.WaitForAjaxCallsToComplete(ctx)
}

func (p *ClientSelectionPage) Close(ctx context.Context) error {
	if err := p.clickWhenReady(ctx, modalCloseButton); err != nil {
		return err
	}
	return p.waits.WaitForElementToDisappear(ctx, clientModal)
}

func (p *ClientSelectionPage) IsModalVisible(ctx context.Context) (bool, error) {
	return p.page.IsVisible(ctx, clientModal)
}
