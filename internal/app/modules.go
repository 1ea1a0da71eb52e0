// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"github.com/specialistvlad/lakegrid/internal/registry"
	"github.com/specialistvlad/lakegrid/modules/empty"
	"github.com/specialistvlad/lakegrid/modules/job_sensor"
	"github.com/specialistvlad/lakegrid/modules/job_submit"
	"github.com/specialistvlad/lakegrid/modules/s3_list"
)

// coreModules is the definitive list of all modules that are compiled into
// the lakegrid binary.
var coreModules = []registry.Module{
	&empty.Module{},
	&s3_list.Module{},
	&job_submit.Module{},
	&job_sensor.Module{},
}
