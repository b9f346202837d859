/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package core is the binding engine.
//
// A template is a tree of Nodes.  A node's directive attribute holds
// a comma-separated list of Directives:
//
//   contain x              x becomes the node's content (text or a Node)
//   attr name value        sets an attribute
//   attrIf cond name value sets or removes an attribute
//   showIf cond            display:none when cond is falsy
//   visIf cond             visibility:hidden when cond is falsy
//   classIf cond class     adds or removes a class
//   if cond                stops the node's remaining directives and its children
//   within x               x becomes the nearest scope
//   anchored name          like within, and bindings below are registered
//   for [index] item       one instance of the first child per element
//   withinEach             like for, with each element as the nearest scope
//
// Arguments are names or dotted paths resolved via the Chain of
// scopes, or quoted strings, or numbers.  A leading '!' negates an
// argument.
//
// Render walks the tree depth-first in document order.  When the
// scopes are anchored (see RenderOpts.Anchor, AnchorNode, and the
// 'anchored' directive), each directive's evaluation is recorded in
// the Registry along with the objects and keys it read.  Notify (or
// Set) then re-evaluates just the bindings that depend on a changed
// object.
//
// Loop directives use the loop node's first element child as a
// template and the second as the container for the rendered
// instances.  Instances are reused by position across renders.
//
// An Engine is single-threaded.  See package sio for a way to feed
// mutations from several sources.
package core
