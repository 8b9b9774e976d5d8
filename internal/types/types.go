package types

import (
	"fmt"
	"path/filepath"
)

// Client is a database subject, identified by an integer id and the group it belongs to.
type Client struct {
	ID    int   `json:"id"`
	Group Group `json:"group"`
}

func (c Client) String() string {
	return fmt.Sprintf("Client(%s, %s)", FormatClientID(c.ID), c.Group)
}

// File is a single extracted image of a client.
type File struct {
	ID        int       `json:"id"`
	ClientID  int       `json:"client_id"`
	Light     Light     `json:"light"`
	Device    Device    `json:"device"`
	Recording Recording `json:"recording"`
	Modality  Modality  `json:"modality"`
	Pose      Pose      `json:"pose"`
	// Orientation is the pose sub-folder (e.g. "yaw_left"), empty for frontal shots.
	Orientation string `json:"orientation,omitempty"`
	Shot        int    `json:"shot"`
	// Path is relative to the images root, '/'-separated, without extension. Unique per catalog.
	Path string `json:"path"`
}

func (f File) String() string {
	return fmt.Sprintf("File(%s)", f.Path)
}

// MakePath prefixes directory and suffixes extension to the stored path.
// The extension normally includes the leading dot, as in ".png".
func (f File) MakePath(directory, extension string) string {
	return filepath.Join(directory, filepath.FromSlash(f.Path+extension))
}

// ProtocolPurpose names one (protocol, group, purpose) file set.
type ProtocolPurpose struct {
	Protocol string  `json:"protocol"`
	Group    Group   `json:"group"`
	Purpose  Purpose `json:"purpose"`
}

func (p ProtocolPurpose) String() string {
	return fmt.Sprintf("ProtocolPurpose(%s, %s, %s)", p.Protocol, p.Group, p.Purpose)
}

// FormatClientID renders a client id the way it appears on disk and in file lists ("026").
func FormatClientID(id int) string {
	return fmt.Sprintf("%03d", id)
}
