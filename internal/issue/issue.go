// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestInvalidId
	InvalidReferenceId
	VersionResolutionFailedId
	DependencyConflictId
	FetchFailedId
	LockFileInvalidId
	LockFileDriftId
	ConfigLoadFailedId
	BundleScanFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No METHODS.toml found!

mthds looks for a package manifest in the current directory.

## Things you can try:
- Create a manifest next to your bundles:
~~~toml
[package]
address = "github.com/acme/legal-methods"
version = "0.1.0"
~~~

- Or point mthds at the package directory:
~~~
$ mthds lock --dir path/to/package
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# The package manifest is invalid

Every problem found in METHODS.toml is listed above.

## Common causes:
- ` + "`address`" + ` must look like ` + "`host.tld/org/repo`" + `
- ` + "`version`" + ` must be a full semantic version such as ` + "`1.2.0`" + `
- dependency aliases, export domains and pipe codes must be snake_case
- dependency versions accept ` + "`*`" + `, ` + "`1.2.3`" + `, ` + "`^1.2.3`" + `, ` + "`~1.2.3`" + ` or ` + "`>=1.2.3`" + `

## Things you can try:
~~~
$ mthds validate
~~~`,
		extLinks: []HttpLink{"https://semver.org"},
	}

	invalidReferenceIssue = &Issue{
		id: InvalidReferenceId,
		mdMsg: `
# Invalid reference

References take the form ` + "`domain.path.Code`" + `, optionally prefixed by a dependency
alias: ` + "`scoring->scoring.compute_score`" + `.

## Rules:
- concept codes are PascalCase, pipe codes are snake_case
- domain segments are snake_case and separated by single dots
- a cross-package pipe must be exported by the dependency's manifest

## Things you can try:
~~~
$ mthds ref 'scoring->scoring.compute_score'
~~~`,
	}

	versionResolutionFailedIssue = &Issue{
		id: VersionResolutionFailedId,
		mdMsg: `
# No matching version

No tag of the dependency satisfies the requested constraint.

## Things you can try:
- List the published tags of the repository:
~~~
$ git ls-remote --tags https://github.com/org/repo.git
~~~
- Relax the constraint in METHODS.toml, for example ` + "`^1.0.0`" + ` instead of ` + "`1.0.0`" + `
- Make sure release tags are semantic versions (` + "`v1.2.0`" + ` or ` + "`1.2.0`" + `)`,
		extLinks: []HttpLink{"https://research.swtch.com/vgo-mvs"},
	}

	dependencyConflictIssue = &Issue{
		id: DependencyConflictId,
		mdMsg: `
# Dependency conflict

Two packages require versions of the same dependency that no single release satisfies,
or a dependency could not be used once fetched.

## Things you can try:
- Inspect who requires what:
~~~
$ mthds deps --verbose
~~~
- Align the constraints across your dependencies, or upgrade the package holding the
  older requirement.`,
	}

	fetchFailedIssue = &Issue{
		id: FetchFailedId,
		mdMsg: `
# Could not reach a package repository

Listing tags or cloning a dependency failed.

## Things you can try:
- Check your network connection and the repository address
- For private HTTPS repositories, export a token in one of the variables configured
  under ` + "`git.auth_token_env`" + ` (default ` + "`GITHUB_TOKEN`" + `, ` + "`GITLAB_TOKEN`" + `, ` + "`GIT_TOKEN`" + `)
- For SSH, make sure a key is loaded in your agent or present in ` + "`~/.ssh`" + `
- Raise ` + "`git.timeout`" + ` in your config for slow remotes`,
	}

	lockFileInvalidIssue = &Issue{
		id: LockFileInvalidId,
		mdMsg: `
# methods.lock is unreadable

The lock file is generated and should not be edited by hand.

## Things you can try:
~~~
$ rm methods.lock
$ mthds lock
~~~`,
	}

	lockFileDriftIssue = &Issue{
		id: LockFileDriftId,
		mdMsg: `
# methods.lock is out of date

The dependencies resolved from METHODS.toml no longer match the lock file.

## Things you can try:
~~~
$ mthds lock
~~~
and commit the updated methods.lock.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

## Things you can try:
- Print the effective defaults:
~~~
$ mthds config show
~~~
- Check ` + "`MTHDS_*`" + ` environment variables; they override the config file`,
	}

	bundleScanFailedIssue = &Issue{
		id: BundleScanFailedId,
		mdMsg: `
# Some bundles could not be scanned

Each .mthds bundle must be valid TOML with a ` + "`domain`" + ` string, and pipe codes must be
snake_case. Bundles sharing a domain must agree on ` + "`main_pipe`" + `.`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():        manifestNotFoundIssue,
		manifestInvalidIssue.Id():         manifestInvalidIssue,
		invalidReferenceIssue.Id():        invalidReferenceIssue,
		versionResolutionFailedIssue.Id(): versionResolutionFailedIssue,
		dependencyConflictIssue.Id():      dependencyConflictIssue,
		fetchFailedIssue.Id():             fetchFailedIssue,
		lockFileInvalidIssue.Id():         lockFileInvalidIssue,
		lockFileDriftIssue.Id():           lockFileDriftIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		bundleScanFailedIssue.Id():        bundleScanFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
