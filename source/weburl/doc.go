// Package weburl validates ontology URLs and derives local names for
// downloaded documents.
//
// # URL Validation
//
// Validate accepts absolute http and https URLs with a host. Other schemes,
// including file URLs, are treated as local paths by the loader.
//
// # File Names
//
// FileName creates readable, deterministic file names for the download
// cache:
//
//	https://emmo-repo.github.io/latest-stable/emmo.ttl → emmo-repo-github-io-latest-stable-emmo-<hash>.ttl
//
// Names are:
//   - Lowercase with hyphens as separators
//   - Truncated to 80 characters before the hash suffix
//   - Suffixed with 8 hex digits of the SHA-256 of the URL, so distinct URLs
//     with the same slug do not collide
//
// # Directories
//
// Dir returns the URL of the directory holding a document, the base against
// which a catalog published next to it is looked up.
package weburl
