// Package config defines the settings model shared by every pedl-deploy
// command.
//
// The [Config] struct is assembled by [Load] from built-in defaults, an
// optional YAML file, PEDL_DEPLOY_* environment variables and explicitly
// set command-line flags, in increasing order of precedence. The constants
// in this package name the CloudFormation parameters and outputs exchanged
// with the bundled templates.
package config
