// Package lang holds the pieces shared by every stage of the plet language:
// the structured [Error] type used across package boundaries and the
// [Diagnostic] records produced by the lexer, parser and interpreter.
//
// The stages themselves live in subpackages:
//
//   - [github.com/ardnew/plet/lang/hashmap]: open-addressing hash table
//   - [github.com/ardnew/plet/lang/symbol]: interned identifiers
//   - [github.com/ardnew/plet/lang/token]: tokens and token streams
//   - [github.com/ardnew/plet/lang/lexer]: byte stream to token stream
//   - [github.com/ardnew/plet/lang/ast]: syntax tree and modules
//   - [github.com/ardnew/plet/lang/parser]: token stream to syntax tree
//   - [github.com/ardnew/plet/lang/value]: runtime values and environments
//   - [github.com/ardnew/plet/lang/interp]: tree-walking evaluator
//   - [github.com/ardnew/plet/lang/module]: per-session module cache
//   - [github.com/ardnew/plet/lang/lib]: standard library modules
//
// # Syntax
//
// A template is literal text with commands in braces:
//
//	{title = 'Home'}
//	<h1>{h(title)}</h1>
//	{for post in posts}<li>{link(post.path)}</li>{else}no posts{end for}
//
// A script (such as index.plet) is read in expression mode, where statements
// are separated by newlines:
//
//	add_static('assets')
//	paginate(list_content('posts'), 5, '/blog%page%/index.html', 'blog.plet')
package lang
