// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/clavisproject/clavis/internal/models"
)

// Viewer actions a caller may request on a file.
const (
	ActionImage       = "image"
	ActionApplication = "application"
	ActionText        = "text"
	ActionOCRDump     = "ocrdump"
	ActionPDF         = "pdf"
	ActionVideo       = "video"
	ActionAudio       = "audio"
	ActionDimensions  = "dimensions"
	ActionVersion     = "version"
)

// privilegeForAction maps a viewer action to the privilege it needs.
// "application" carrying a PDF is a download, not a view: serving it
// under the image privilege would let callers disguise PDF downloads.
func privilegeForAction(action, fileName string, isThumbnail bool) (models.Privilege, error) {
	switch action {
	case ActionImage, ActionDimensions, ActionVersion:
		if isThumbnail {
			return models.PrivViewThumbnails, nil
		}
		return models.PrivViewImages, nil
	case ActionApplication:
		if strings.EqualFold(path.Ext(fileName), ".pdf") {
			return models.PrivDownloadPDF, nil
		}
		return models.PrivViewImages, nil
	case ActionText, ActionOCRDump:
		return models.PrivViewFulltext, nil
	case ActionPDF:
		return models.PrivDownloadPDF, nil
	case ActionVideo:
		return models.PrivViewVideo, nil
	case ActionAudio:
		return models.PrivViewAudio, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// CheckAccess decides whether the requester may perform a viewer action
// on a file of a record. Unknown actions are denied.
func (e *Engine) CheckAccess(ctx context.Context, sess *Session, action, pi, fileName string, isThumbnail bool) (bool, error) {
	priv, err := privilegeForAction(action, fileName, isThumbnail)
	if err != nil {
		return false, err
	}
	return e.CheckAccessPermissionByIdentifierAndFileName(ctx, sess, pi, fileName, priv)
}
