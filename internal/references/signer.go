package references

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/goliatone/go-wiki/internal/links"
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

const (
	// DefaultSigningTTL is used when SignAttachmentURLs receives no ttl.
	DefaultSigningTTL = 60 * time.Second
	// DefaultConcurrency bounds the number of signing calls in flight.
	DefaultConcurrency = 8
)

var (
	// ErrPartialSigning is returned alongside a usable document when some
	// attachments could not be signed. Their URLs are left unchanged.
	ErrPartialSigning = errors.New("references: some attachment urls could not be signed")
	// ErrMissingFinder is returned when the signer has no attachment finder.
	ErrMissingFinder = errors.New("references: attachment finder is required")
	// ErrMissingURLSigner is returned when the signer has no url signer.
	ErrMissingURLSigner = errors.New("references: url signer is required")
)

// Signer replaces attachment redirect URLs in documents with time-limited
// signed URLs.
type Signer struct {
	finder      interfaces.AttachmentFinder
	urls        interfaces.URLSigner
	logger      interfaces.Logger
	concurrency int
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithSignerLogger sets the logger used for signing failures.
func WithSignerLogger(logger interfaces.Logger) SignerOption {
	return func(s *Signer) {
		s.logger = logger
	}
}

// WithConcurrency bounds the number of concurrent signing calls. Values
// below one keep the default.
func WithConcurrency(n int) SignerOption {
	return func(s *Signer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewSigner builds a signer resolving attachments through finder and
// signing their storage keys through urls.
func NewSigner(finder interfaces.AttachmentFinder, urls interfaces.URLSigner, opts ...SignerOption) *Signer {
	s := &Signer{
		finder:      finder,
		urls:        urls,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.Ensure(s.logger)
	return s
}

type signedAttachment struct {
	attachment interfaces.Attachment
	url        string
}

// SignAttachmentURLs returns a copy of doc where every reference to an
// attachment owned by scopeID points at a signed URL valid for ttl. A
// failing lookup aborts the call. Failures to sign individual attachments
// leave their URLs unchanged and are reported as ErrPartialSigning together
// with the rewritten document.
func (s *Signer) SignAttachmentURLs(ctx context.Context, doc *node.Node, scopeID string, ttl time.Duration) (*node.Node, error) {
	if s.finder == nil {
		return nil, ErrMissingFinder
	}
	if s.urls == nil {
		return nil, ErrMissingURLSigner
	}
	if doc == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = DefaultSigningTTL
	}

	ids := ParseAttachmentIDs(doc)
	if len(ids) == 0 {
		return doc.Clone(), nil
	}

	attachments, err := s.finder.FindAttachmentsByIDsAndOwner(ctx, ids, scopeID)
	if err != nil {
		return nil, fmt.Errorf("references: find attachments: %w", err)
	}

	signed, signErr := s.sign(ctx, attachments, ttl)
	out := node.Transform(doc, func(n *node.Node) {
		for _, name := range []string{"href", "src"} {
			if href, ok := n.Attrs[name].(string); ok {
				n.Attrs[name] = replaceSigned(href, signed)
			}
		}
		for i, m := range n.Marks {
			if m.Type != node.MarkLink {
				continue
			}
			if href, ok := m.Attrs["href"].(string); ok {
				n.Marks[i].Attrs["href"] = replaceSigned(href, signed)
			}
		}
	})

	if signErr != nil {
		return out, fmt.Errorf("%w: %w", ErrPartialSigning, signErr)
	}
	return out, nil
}

func (s *Signer) sign(ctx context.Context, attachments []interfaces.Attachment, ttl time.Duration) ([]signedAttachment, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		errs   *multierror.Error
		result = make([]signedAttachment, 0, len(attachments))
		slots  = make(chan struct{}, s.concurrency)
	)

	for _, attachment := range attachments {
		wg.Add(1)
		slots <- struct{}{}
		go func(attachment interfaces.Attachment) {
			defer func() {
				<-slots
				wg.Done()
			}()

			url, err := s.urls.SignedURL(ctx, attachment.Key, ttl)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("references.sign.failed", "attachment_id", attachment.ID, "error", err)
				errs = multierror.Append(errs, fmt.Errorf("attachment %s: %w", attachment.ID, err))
				return
			}
			result = append(result, signedAttachment{attachment: attachment, url: url})
		}(attachment)
	}
	wg.Wait()

	return result, errs.ErrorOrNil()
}

// replaceSigned returns the signed URL of the attachment href refers to.
// The stored redirect URL is compared by path and query so absolute and
// relative forms of it match.
func replaceSigned(href string, signed []signedAttachment) string {
	if !links.IsAttachmentURL(href) {
		return href
	}
	key := links.PathAndQuery(href)
	for _, s := range signed {
		if s.attachment.RedirectURL == "" {
			if id, _ := links.AttachmentID(href); id == s.attachment.ID {
				return s.url
			}
			continue
		}
		prefix := links.PathAndQuery(s.attachment.RedirectURL)
		if hasBoundedPrefix(key, prefix) {
			return s.url
		}
	}
	return href
}

// hasBoundedPrefix reports whether s starts with prefix and the match ends
// at a query separator, so "id=ab" does not match "id=abc".
func hasBoundedPrefix(s, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(s, prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	switch s[len(prefix)] {
	case '&', '#':
		return true
	}
	return false
}
