// Package bitbucket talks to the Bitbucket Cloud 2.0 REST API.
//
// Client enumerates the repositories of a workspace as a lazy iter.Seq2 that
// follows the listing's page cursor until it is exhausted, validating every
// page before any of its entries is yielded, and deletes repositories while
// leaving a redirect to their new home.
package bitbucket
