package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("room_id: 12345\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.RoomID != 12345 {
		t.Fatalf("RoomID = %d, want 12345", c.RoomID)
	}
	if c.HeartbeatInterval != 30*time.Second {
		t.Fatalf("HeartbeatInterval = %v, want 30s", c.HeartbeatInterval)
	}
	if c.ProtocolVersion != 2 {
		t.Fatalf("ProtocolVersion = %d, want 2", c.ProtocolVersion)
	}
	if c.Transport != "websocket" {
		t.Fatalf("Transport = %q, want websocket", c.Transport)
	}
	if c.HandshakeDeadline != 15*time.Second {
		t.Fatalf("HandshakeDeadline = %v, want 15s", c.HandshakeDeadline)
	}
}

func TestLoadConfig_OverridesStick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "room_id: 1\nheartbeat_interval: 5s\nprotocol_version: 1\ntransport: tcp\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.HeartbeatInterval != 5*time.Second {
		t.Fatalf("HeartbeatInterval = %v, want 5s", c.HeartbeatInterval)
	}
	if c.ProtocolVersion != 1 {
		t.Fatalf("ProtocolVersion = %d, want 1", c.ProtocolVersion)
	}
	if c.Transport != "tcp" {
		t.Fatalf("Transport = %q, want tcp", c.Transport)
	}
}

func TestValidate(t *testing.T) {
	c := ClientOptions{HeartbeatInterval: 0}
	if err := c.Validate(); err != ErrInvalidHeartbeatInterval {
		t.Fatalf("err = %v, want ErrInvalidHeartbeatInterval", err)
	}

	c = ClientOptions{HeartbeatInterval: time.Second, ProtocolVersion: 4}
	if err := c.Validate(); err != ErrInvalidProtocolVersion {
		t.Fatalf("err = %v, want ErrInvalidProtocolVersion", err)
	}

	c = ClientOptions{HeartbeatInterval: time.Second, ProtocolVersion: 3}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
