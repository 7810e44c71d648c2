// Package commands implements the vault command line client: account registration,
// sign-in and sign-out, and access to the download catalog through the auth client.
package commands
