package mcpserver

// NoteLayoutGuide describes how notes must be laid out so the catalog
// picks them up. Served as a resource and a tool for LLM consumers.
const NoteLayoutGuide = `# TIL Note Layout

Every note is a Markdown file two levels below the repository root:

` + "```" + `
<topic>/<note-name>.md
` + "```" + `

## Rules

1. **Topic** is the directory name. Files directly in the root, or nested
   deeper than one directory, are not notes. Directories starting with a
   dot are ignored.
2. **Title** is the first line of the file with leading ` + "`" + `#` + "`" + ` characters
   and surrounding whitespace removed. There is no frontmatter.
3. **Body** is everything after the first line, trimmed.
4. **Dates** come from git. A note appears in the catalog only after a
   commit on the configured branch touches it. The first such commit is
   its created date; the latest is its updated date.
5. **Catalog key** is the relative path with ` + "`" + `/` + "`" + ` replaced by ` + "`" + `_` + "`" + `
   (` + "`" + `go/defer.md` + "`" + ` becomes ` + "`" + `go_defer.md` + "`" + `). Tools accept either form.

## Example

` + "```" + `markdown
# Deferred calls evaluate their arguments immediately

The arguments of a deferred call are evaluated when the defer statement
runs, not when the surrounding function returns.
` + "```" + `
`
