// Package semrel computes the next semantic version of a project from its
// conventional commits and records the release in a changelog.
//
// Related packages: commit, version, changelog, config, runner, manifest,
// model, vcs, vcs/gitcli, vcs/gogit
package semrel

import "github.com/jeffrom/semrel/config"

// Config holds most of the configuration variables for semrel. This struct
// is intended for command-line use, so not all of its attributes are
// applicable to every operation.
//
// See "go doc github.com/jeffrom/semrel/config Config" for more information.
type Config = config.Config
