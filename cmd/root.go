// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/bananaloaf/drivefuse/cfg"
	"github.com/bananaloaf/drivefuse/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error
	MountConfig   cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "drivefuse [flags] profile mount_point",
	Short: "Mount a Google Drive profile locally as a POSIX directory tree",
	Long: `drivefuse is a FUSE adapter that exposes a Google Drive account
          as a local directory tree: a metadata index shadows the remote
          namespace, a content-addressed cache serves file reads, and a
          request queue defers mutating operations until the server
          assigns them real identifiers.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		if err := cfg.Rationalize(&MountConfig); err != nil {
			return err
		}
		if err := cfg.ValidateConfig(&MountConfig); err != nil {
			return err
		}
		profile, mountPoint, err := populateArgs(args)
		if err != nil {
			return err
		}
		return runMount(cmd.Context(), profile, mountPoint, &MountConfig)
	},
}

func populateArgs(args []string) (profile string, mountPoint string, err error) {
	switch len(args) {
	case 1:
		mountPoint = args[0]
	case 2:
		profile = args[0]
		mountPoint = args[1]
	default:
		err = fmt.Errorf("drivefuse takes one or two arguments; run --help for more info")
		return
	}

	if mountPoint == "" {
		mountPoint = string(MountConfig.Mount.Mountpoint)
	}

	mountPoint, err = util.GetResolvedPath(mountPoint)
	if err != nil {
		err = fmt.Errorf("canonicalizing mount point: %w", err)
		return
	}
	return
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to the YAML config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&MountConfig, viper.DecodeHook(cfg.DecodeHook()))
		return
	}

	resolved, err := util.GetResolvedPath(cfgFile)
	if err != nil {
		configFileErr = fmt.Errorf("error while resolving config file path: %w", err)
		return
	}
	viper.SetConfigFile(resolved)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("error while reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&MountConfig, viper.DecodeHook(cfg.DecodeHook()))
}
