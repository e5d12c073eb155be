// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package jujuenv discovers which controller and model the Upgrader
// should talk to, from the host's ambient juju configuration: the
// credentials file discovered from the juju-data environment variable,
// defaulting to the standard per-user path. It is a
// read-only, narrowed cousin of jujuclient.ClientStore: the Upgrader
// never writes controllers.yaml/models.yaml, it only resolves the
// currently-selected controller and model and hands their connection
// details to internal/controller/juju.
package jujuenv

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// DataDir resolves the juju client data directory: $JUJU_DATA if set,
// otherwise ~/.local/share/juju, matching jujuclient's default.
func DataDir() (string, error) {
	if dir := os.Getenv("JUJU_DATA"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Annotate(err, "resolving $HOME to default juju-data path")
	}
	return filepath.Join(home, ".local", "share", "juju"), nil
}

// ControllerDetails holds the subset of controllers.yaml entries the
// Upgrader needs to dial a controller, mirroring
// jujuclient.ControllerDetails.
type ControllerDetails struct {
	APIEndpoints []string `yaml:"api-endpoints,flow"`
	CACert       string   `yaml:"ca-cert"`
}

type controllersFile struct {
	Controllers       map[string]ControllerDetails `yaml:"controllers"`
	CurrentController string                        `yaml:"current-controller"`
}

// CurrentController returns the name and connection details of the
// currently-selected controller, read from controllers.yaml in the
// resolved data directory.
func CurrentController() (name string, details ControllerDetails, err error) {
	dir, err := DataDir()
	if err != nil {
		return "", ControllerDetails{}, errors.Trace(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "controllers.yaml"))
	if err != nil {
		return "", ControllerDetails{}, errors.Annotatef(err, "reading controllers.yaml in %s", dir)
	}
	var cf controllersFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return "", ControllerDetails{}, errors.Annotate(err, "parsing controllers.yaml")
	}
	if cf.CurrentController == "" {
		return "", ControllerDetails{}, errors.NotFoundf("current controller in %s", dir)
	}
	d, ok := cf.Controllers[cf.CurrentController]
	if !ok {
		return "", ControllerDetails{}, errors.NotFoundf("controller %q in controllers.yaml", cf.CurrentController)
	}
	return cf.CurrentController, d, nil
}

type modelsFile struct {
	ControllerModels map[string]struct {
		Models        map[string]struct{} `yaml:"models"`
		CurrentModel  string               `yaml:"current-model"`
	} `yaml:"controllers"`
}

// CurrentModel returns the currently-selected model name for
// controllerName, read from models.yaml, defaulting to "" (meaning
// "use whatever model the command's --model flag or active context
// names") when no current model has been set.
func CurrentModel(controllerName string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", errors.Trace(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "models.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Annotatef(err, "reading models.yaml in %s", dir)
	}
	var mf modelsFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return "", errors.Annotate(err, "parsing models.yaml")
	}
	return mf.ControllerModels[controllerName].CurrentModel, nil
}
