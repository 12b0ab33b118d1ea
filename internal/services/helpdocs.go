package services

import (
	"sonacove/internal/gateway"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

// Opener opens a URL in the system browser
type Opener interface {
	OpenExternal(url string) error
}

// HelpDocsService opens the product documentation
type HelpDocsService struct {
	url    string
	opener Opener
	logger logging.Logger
}

func NewHelpDocsService(url string, opener Opener, logger logging.Logger) *HelpDocsService {
	return &HelpDocsService{url: url, opener: opener, logger: logging.Named(logger, "help-docs")}
}

// Open passes the docs URL through the same scheme gate as open-external
func (h *HelpDocsService) Open() error {
	if h.opener == nil {
		return errors.HandleUnavailable("open_help_docs", "browser", "no opener configured")
	}
	target, err := gateway.CheckExternalURL(h.url)
	if err != nil {
		return err
	}
	if err := h.opener.OpenExternal(target); err != nil {
		return errors.WrapErrorWithContext("open_help_docs", err, map[string]string{"url": target})
	}
	h.logger.Debug("Opened help docs", "url", target)
	return nil
}
