// Package cli implements the mecfleet command-line interface.
//
// Every fleet action is its own Cobra command:
//
//	mecfleet pull-files               - rsync a path from each device
//	mecfleet push-files               - rsync a path to each device (confirmed)
//	mecfleet pull-etc-bundle          - fetch dui/ and etc/ into each device directory
//	mecfleet push-etc-bundle          - push each device directory back (confirmed)
//	mecfleet remote-exec [command]    - run a command on each device over ssh
//	mecfleet local-exec [command]     - run a command locally once per device
//	mecfleet deploy-calibration       - install calibration archives locally
//	mecfleet show-substituted-command - print the per-device command
//	mecfleet devices                  - list the fleet
//	mecfleet doctor                   - check tools, config and fleet layout
//
// # Run Flow
//
// Action commands share runFleet:
//
//  1. Load config (.mecfleet.yaml, env, then explicitly set flags) and validate it
//  2. Build the device registry from the fleet root
//  3. Resolve --scope into device ids
//  4. Build the dispatch table and resolve the action
//  5. Dispatch (confirmation first for destructive actions)
//  6. Render the summary and write the optional YAML report
//
// # Flag Handling
//
// Global flags are persistent on the root command. A flag only overrides the
// config when it was set on the command line, so config and MECFLEET_*
// environment values survive flag defaults.
package cli
