// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Program to watch a sensor input, such as the hall-effect switch

package main

import (
	"flag"
	"time"

	"github.com/aamcrae/gryphon/io"
	"github.com/aamcrae/gryphon/logging"
)

var pin = flag.String("gpio", "GPIO21", "GPIO pin of the sensor")
var timeout = flag.Duration("timeout", 5*time.Second, "Report the level if no edge is seen for this long")

func main() {
	flag.Parse()
	log := logging.NewLogger("watch", false)
	p, err := io.InputPin(*pin)
	if err != nil {
		log.Fatalf("Pin %s: %v", *pin, err)
	}
	defer p.Close()
	err = p.Edge(io.BOTH)
	if err != nil {
		log.Fatalf("Pin %s: edge BOTH: %v", *pin, err)
	}
	for {
		edge := p.Wait(*timeout)
		v := p.Level()
		log.Infow("level", "pin", *pin, "value", v, "edge", edge)
	}
}
