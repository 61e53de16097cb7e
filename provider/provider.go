// Package provider contains translation backends for the annotator.
package provider

import "github.com/ZaguanLabs/duotext"

// AIProvider is an alias of duotext.AIProvider.
type AIProvider = duotext.AIProvider

// TranslateRequest is an alias of duotext.TranslateRequest.
type TranslateRequest = duotext.TranslateRequest
