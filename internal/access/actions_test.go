// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"errors"
	"testing"

	"github.com/clavisproject/clavis/internal/models"
)

func TestPrivilegeForAction(t *testing.T) {
	tests := []struct {
		action    string
		file      string
		thumbnail bool
		want      models.Privilege
	}{
		{ActionImage, "page_0001.tif", false, models.PrivViewImages},
		{ActionImage, "page_0001.tif", true, models.PrivViewThumbnails},
		{ActionDimensions, "page_0001.tif", false, models.PrivViewImages},
		{ActionVersion, "page_0001.tif", false, models.PrivViewImages},
		{ActionApplication, "scan.tif", false, models.PrivViewImages},
		{ActionApplication, "book.pdf", false, models.PrivDownloadPDF},
		{ActionApplication, "BOOK.PDF", false, models.PrivDownloadPDF},
		{ActionText, "page.txt", false, models.PrivViewFulltext},
		{ActionOCRDump, "page.xml", false, models.PrivViewFulltext},
		{ActionPDF, "book.pdf", false, models.PrivDownloadPDF},
		{ActionVideo, "clip.mp4", false, models.PrivViewVideo},
		{ActionAudio, "track.mp3", false, models.PrivViewAudio},
	}
	for _, tt := range tests {
		got, err := privilegeForAction(tt.action, tt.file, tt.thumbnail)
		if err != nil {
			t.Errorf("privilegeForAction(%q, %q) error: %v", tt.action, tt.file, err)
			continue
		}
		if got != tt.want {
			t.Errorf("privilegeForAction(%q, %q, thumb=%v) = %v, want %v", tt.action, tt.file, tt.thumbnail, got, tt.want)
		}
	}
}

func TestUnknownActionDenied(t *testing.T) {
	if _, err := privilegeForAction("teleport", "page.tif", false); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
