// Package utils hosts the configuration and logging plumbing shared by every command.
//
// ConfigurationLoader layers embedded defaults, configuration files and GITFLEET_*
// environment variables through Viper. LoggerFactory builds zap loggers in structured
// (JSON) or console form.
package utils
