package config

// Contents written on first run. Users edit these files directly; the
// loader never rewrites an existing file.

const defaultSkipList = `# Paths asimov never scans, one per line.
# Relative entries are resolved against the scan root.
.Trash
Library
`

const defaultRulesList = `# Dependency directories to exclude from backups.
# Format: <dirName> <markerName>  # the marker must sit beside the directory.
node_modules     package.json     # Node
bower_components bower.json      # Bower
target           Cargo.toml      # Rust
vendor           composer.json   # PHP
vendor           go.mod          # Go
.build           Package.swift   # Swift
.stack-work      stack.yaml      # Haskell
.vagrant         Vagrantfile     # Vagrant
Carthage         Cartfile        # Carthage
Pods             Podfile         # CocoaPods
.venv            pyproject.toml  # Python
.tox             tox.ini         # Python
`
