package services

import (
	"context"
	"io"

	"github.com/arunsharma1203/grievance/internal/blob"
)

// AudioService stores uploaded audio and optionally relays it to the channel.
type AudioService struct {
	blobs      *blob.Store
	relay      *Relay
	gw         Gateway
	publicBase string
	maxBytes   int64
}

func NewAudioService(blobs *blob.Store, relay *Relay, gw Gateway, publicBase string, maxBytes int64) *AudioService {
	return &AudioService{blobs: blobs, relay: relay, gw: gw, publicBase: publicBase, maxBytes: maxBytes}
}

// Upload is the outcome of a stored upload.
type Upload struct {
	Blob     *blob.Blob
	URL      string    // served URL, absolute when a public base is configured
	Delivery *Delivery // nil when relaying was not requested
}

// Upload stores r under a generated name; relayed uploads go to the broadcast chat.
func (s *AudioService) Upload(ctx context.Context, r io.Reader, filename string, relay bool) (*Upload, error) {
	b, err := s.blobs.Save(r, filename, s.maxBytes)
	if err != nil {
		return nil, err
	}
	out := &Upload{Blob: b, URL: absoluteURL(s.publicBase, b.URL)}
	if !relay {
		return out, nil
	}

	rctx, cancel := relayContext(ctx, DefaultRelayTimeout)
	defer cancel()
	d := s.relay.Deliver(rctx, uploadNotice(s.publicBase, b.URL, filename, b.Size))
	countSubmission("upload", d)
	out.Delivery = &d
	return out, nil
}

// ResolveFile turns a channel file token into a fetchable URL.
func (s *AudioService) ResolveFile(ctx context.Context, fileID string) (string, bool) {
	return s.gw.ResolveFileURL(ctx, fileID)
}
