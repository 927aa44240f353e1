package exportcmd_test

import (
	"errors"
	"testing"

	exportcmd "github.com/goliatone/go-wiki/internal/commands/export"
	"github.com/goliatone/go-wiki/internal/commands/fixtures"
	"github.com/goliatone/go-wiki/internal/references"
	"github.com/goliatone/go-wiki/internal/storage/attachments"
)

func TestRegisterCommandsRecordsHandlers(t *testing.T) {
	registry := fixtures.NewRecordingRegistry()

	set, err := exportcmd.RegisterCommands(registry, exportcmd.Services{}, nil, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if set.Export == nil || set.Sign != nil {
		t.Fatalf("expected only the export handler without a signer, got %+v", set)
	}
	if len(registry.Handlers) != 1 || registry.Handlers[0] != set.Export {
		t.Fatalf("expected export handler to be registered, got %v", registry.Handlers)
	}
}

func TestRegisterCommandsWithSigner(t *testing.T) {
	registry := fixtures.NewRecordingRegistry()
	services := exportcmd.Services{
		Signer: references.NewSigner(attachments.NewMemoryStore(""), nil),
	}

	set, err := exportcmd.RegisterCommands(registry, services, nil, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if set.Sign == nil {
		t.Fatal("expected signing handler")
	}
	if len(registry.Handlers) != 2 {
		t.Fatalf("expected two handlers, got %d", len(registry.Handlers))
	}
}

func TestRegisterCommandsPropagatesRegistryError(t *testing.T) {
	registry := fixtures.NewRecordingRegistry()
	registry.Err = errors.New("registry closed")

	if _, err := exportcmd.RegisterCommands(registry, exportcmd.Services{}, nil, nil); !errors.Is(err, registry.Err) {
		t.Fatalf("expected registry error, got %v", err)
	}
}
