// Package manifest defines the package descriptor consumed by the workspace
// ordering code and the loaders that read descriptors from disk.
//
// A [Package] is an immutable record of a package's identity and its
// dependency lists, one list per [Kind]. Dependencies may carry a condition
// expression; [Package.Evaluate] returns a copy with every false dependency
// removed, which is the form the ordering code works on.
//
// # Manifest formats
//
// Loaders implement [Detector]. The [Registry] checks detectors in an order
// derived from their declared dependencies, so a detector for a generic file
// (CMakeLists.txt) is only consulted after every more specific format:
//
//   - package.toml: native format, decoded with BurntSushi/toml
//   - package.yaml: same schema in YAML, decoded with yaml.v3
//   - package.xml: ROS style manifests (format 1, 2 and 3)
//   - CMakeLists.txt: plain CMake projects, build type "cmake"
//   - setup.py: setuptools projects, build type "ament_python"
//
// # Conditions
//
// Conditions use a small expression language:
//
//	$ROS_VERSION == 2
//	$PLATFORM != "windows" and ($ARCH == x86_64 or $ARCH == arm64)
//
// Variables resolve against the map given to [EvaluateCondition]; unset
// variables compare as the empty string. Expressions are compiled to CEL
// programs and cached.
package manifest
